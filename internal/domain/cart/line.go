package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront/internal/domain/catalog"
)

// Line is a product snapshot taken when it entered the cart, plus the quantity.
type Line struct {
	ID       int
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

func NewLine(p catalog.Product) Line {
	return Line{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	}
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type lineJSON struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image"`
	Quantity int         `json:"quantity"`
}

func (l Line) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineJSON{
		ID:       l.ID,
		Name:     l.Name,
		Price:    json.Number(l.Price.String()),
		Image:    l.Image,
		Quantity: l.Quantity,
	})
}

func (l *Line) UnmarshalJSON(b []byte) error {
	var raw lineJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	price, err := decimal.NewFromString(raw.Price.String())
	if err != nil {
		return err
	}
	*l = Line{
		ID:       raw.ID,
		Name:     raw.Name,
		Price:    price,
		Image:    raw.Image,
		Quantity: raw.Quantity,
	}
	return nil
}
