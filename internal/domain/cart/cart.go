package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront/internal/domain/catalog"
)

// Cart is an ordered list of lines with at most one line per product id
// and no line with a quantity below one.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{lines: []Line{}}
}

// FromLines rebuilds a cart, rejecting input that breaks the cart invariants.
func FromLines(lines []Line) (*Cart, error) {
	seen := make(map[int]struct{}, len(lines))
	out := make([]Line, 0, len(lines))

	for _, l := range lines {
		if l.ID <= 0 {
			return nil, fmt.Errorf("line has invalid product id %d", l.ID)
		}
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("line %d has non-positive quantity %d", l.ID, l.Quantity)
		}
		if l.Price.IsNegative() {
			return nil, fmt.Errorf("line %d has negative price", l.ID)
		}
		if _, dup := seen[l.ID]; dup {
			return nil, fmt.Errorf("duplicate line for product %d", l.ID)
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}

	return &Cart{lines: out}, nil
}

func Decode(data []byte) (*Cart, error) {
	if len(data) == 0 {
		return nil, errors.New("empty cart payload")
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, err
	}
	return FromLines(lines)
}

func (c *Cart) Encode() ([]byte, error) {
	return json.Marshal(c.lines)
}

// Add increments the product's line or appends a new one with quantity 1.
func (c *Cart) Add(p catalog.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, NewLine(p))
}

// SetQuantity reports whether a line for id existed. A quantity below one removes it.
func (c *Cart) SetQuantity(id, quantity int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.removeAt(i)
		return true
	}
	c.lines[i].Quantity = quantity
	return true
}

func (c *Cart) Remove(id int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) Clear() {
	c.lines = []Line{}
}

func (c *Cart) Clone() *Cart {
	return &Cart{lines: c.Lines()}
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Line(id int) (Line, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) index(id int) int {
	for i, l := range c.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
