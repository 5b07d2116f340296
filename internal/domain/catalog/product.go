package catalog

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID    int
	Name  string
	Price decimal.Decimal
	Image string
}

type productJSON struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Image string      `json:"image"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:    p.ID,
		Name:  p.Name,
		Price: json.Number(p.Price.String()),
		Image: p.Image,
	})
}

func (p *Product) UnmarshalJSON(b []byte) error {
	var raw productJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	price, err := decimal.NewFromString(raw.Price.String())
	if err != nil {
		return err
	}
	*p = Product{ID: raw.ID, Name: raw.Name, Price: price, Image: raw.Image}
	return nil
}

func (p Product) Validate() error {
	if p.ID <= 0 {
		return errors.New("product id must be positive")
	}
	if p.Name == "" {
		return errors.New("product name cannot be empty")
	}
	if p.Price.IsNegative() {
		return errors.New("product price cannot be negative")
	}
	return nil
}
