package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
)

//go:embed products.json
var defaultProducts []byte

// Catalog is the immutable product list the storefront sells from.
type Catalog struct {
	products []Product
	byID     map[int]Product
}

func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[int]Product, len(products)),
	}

	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", domainErrors.ErrInvalidCatalog, p.ID, err)
		}
		if _, exists := c.byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate product id %d", domainErrors.ErrInvalidCatalog, p.ID)
		}
		c.byID[p.ID] = p
		c.products = append(c.products, p)
	}

	sort.Slice(c.products, func(i, j int) bool {
		return c.products[i].ID < c.products[j].ID
	})

	return c, nil
}

func Load(r io.Reader) (*Catalog, error) {
	var products []Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidCatalog, err)
	}
	return New(products)
}

func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Load(file)
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultProducts))
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(id int) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int {
	return len(c.products)
}
