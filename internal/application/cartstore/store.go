package cartstore

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront/internal/application/ports"
	"github.com/yuzvak/storefront/internal/domain/cart"
	"github.com/yuzvak/storefront/internal/domain/catalog"
	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

const DefaultMaxQuantity = 99

// Store owns one shopper's cart. Every mutation writes the whole cart back to
// storage before returning; a mutation that cannot be saved is undone, so reads
// after a mutation always see persisted state.
// A Store is not safe for concurrent use; each shopper session gets its own.
type Store struct {
	storage     ports.CartStorage
	catalog     *catalog.Catalog
	notifier    ports.Notifier
	log         *logger.Logger
	maxQuantity int

	cart *cart.Cart
}

type Option func(*Store)

func WithNotifier(n ports.Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

func WithMaxQuantity(max int) Option {
	return func(s *Store) {
		if max > 0 {
			s.maxQuantity = max
		}
	}
}

func NewStore(storage ports.CartStorage, products *catalog.Catalog, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		storage:     storage,
		catalog:     products,
		log:         log,
		maxQuantity: DefaultMaxQuantity,
		cart:        cart.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory cart with the persisted one. Missing or corrupt
// data yields an empty cart.
func (s *Store) Load() {
	data, err := s.storage.Load()
	if err != nil {
		s.log.Warn("Failed to read persisted cart, starting empty", "error", err)
		s.cart = cart.New()
		return
	}
	if len(data) == 0 {
		s.cart = cart.New()
		return
	}

	loaded, err := cart.Decode(data)
	if err != nil {
		s.log.Warn("Discarding invalid persisted cart", "error", err)
		s.cart = cart.New()
		return
	}
	for _, l := range loaded.Lines() {
		if l.Quantity > s.maxQuantity {
			s.log.Warn("Discarding persisted cart above quantity cap", "product_id", l.ID, "quantity", l.Quantity)
			s.cart = cart.New()
			return
		}
	}
	s.cart = loaded
}

// Add puts one unit of the product in the cart. It reports false, without
// notifying, for unknown products, at the quantity cap, or when the cart could not be saved.
func (s *Store) Add(productID int) bool {
	product, ok := s.catalog.Lookup(productID)
	if !ok {
		s.log.Debug("Ignoring add of unknown product", "product_id", productID)
		return false
	}

	if line, exists := s.cart.Line(productID); exists && line.Quantity >= s.maxQuantity {
		s.log.Debug("Quantity cap reached", "product_id", productID, "max_quantity", s.maxQuantity)
		return false
	}

	before := s.cart.Clone()
	s.cart.Add(product)
	if !s.persist(before) {
		return false
	}

	if s.notifier != nil {
		s.notifier.Notify(fmt.Sprintf("%s has been added to your cart!", product.Name))
	}
	return true
}

func (s *Store) UpdateQuantity(productID, quantity int) error {
	if quantity > s.maxQuantity {
		return fmt.Errorf("%w: %d exceeds maximum of %d", domainErrors.ErrInvalidQuantity, quantity, s.maxQuantity)
	}
	before := s.cart.Clone()
	if s.cart.SetQuantity(productID, quantity) && !s.persist(before) {
		return domainErrors.ErrCartFull
	}
	return nil
}

func (s *Store) Remove(productID int) {
	before := s.cart.Clone()
	if s.cart.Remove(productID) {
		s.persist(before)
	}
}

func (s *Store) Clear() {
	before := s.cart.Clone()
	s.cart.Clear()
	if err := s.storage.Clear(); err != nil {
		s.log.Warn("Failed to clear persisted cart, change undone", "error", err)
		s.cart = before
	}
}

func (s *Store) Total() decimal.Decimal {
	return s.cart.Total()
}

func (s *Store) ItemCount() int {
	return s.cart.ItemCount()
}

func (s *Store) Lines() []cart.Line {
	return s.cart.Lines()
}

func (s *Store) IsEmpty() bool {
	return s.cart.IsEmpty()
}

// persist saves the cart, or restores before and reports false when it cannot.
func (s *Store) persist(before *cart.Cart) bool {
	data, err := s.cart.Encode()
	if err == nil {
		err = s.storage.Save(data)
	}
	if err != nil {
		s.log.Warn("Failed to persist cart, change undone", "error", err)
		s.cart = before
		return false
	}
	return true
}
