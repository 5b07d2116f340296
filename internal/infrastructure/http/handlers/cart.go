package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/yuzvak/storefront/internal/application/cartstore"
	"github.com/yuzvak/storefront/internal/domain/cart"
	"github.com/yuzvak/storefront/internal/domain/catalog"
	"github.com/yuzvak/storefront/internal/infrastructure/http/middleware"
	"github.com/yuzvak/storefront/internal/infrastructure/http/response"
	"github.com/yuzvak/storefront/internal/infrastructure/http/session"
	"github.com/yuzvak/storefront/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

// CartSessions opens the shopper's cart from the request cookie.
type CartSessions struct {
	cookie      session.CookieConfig
	catalog     *catalog.Catalog
	maxQuantity int
	log         *logger.Logger
}

func NewCartSessions(cookie session.CookieConfig, products *catalog.Catalog, maxQuantity int, log *logger.Logger) *CartSessions {
	return &CartSessions{
		cookie:      cookie,
		catalog:     products,
		maxQuantity: maxQuantity,
		log:         log,
	}
}

func (s *CartSessions) Open(w http.ResponseWriter, r *http.Request, opts ...cartstore.Option) *cartstore.Store {
	storage := session.NewCookieStorage(s.cookie, w, r)
	opts = append([]cartstore.Option{cartstore.WithMaxQuantity(s.maxQuantity)}, opts...)
	store := cartstore.NewStore(storage, s.catalog, middleware.LoggerFrom(r.Context(), s.log), opts...)
	store.Load()
	return store
}

type CartLineResponse struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image"`
	Quantity int         `json:"quantity"`
	Subtotal json.Number `json:"subtotal"`
}

type CartResponse struct {
	Lines     []CartLineResponse `json:"lines"`
	Total     json.Number        `json:"total"`
	ItemCount int                `json:"item_count"`
}

func newCartResponse(store *cartstore.Store) CartResponse {
	lines := store.Lines()
	out := make([]CartLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineResponse(l))
	}
	return CartResponse{
		Lines:     out,
		Total:     json.Number(store.Total().String()),
		ItemCount: store.ItemCount(),
	}
}

func cartLineResponse(l cart.Line) CartLineResponse {
	return CartLineResponse{
		ID:       l.ID,
		Name:     l.Name,
		Price:    json.Number(l.Price.String()),
		Image:    l.Image,
		Quantity: l.Quantity,
		Subtotal: json.Number(l.Subtotal().String()),
	}
}

type CartHandler struct {
	sessions *CartSessions
	metrics  *monitoring.CartMetrics
	log      *logger.Logger
}

func NewCartHandler(sessions *CartSessions, log *logger.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		metrics:  monitoring.NewCartMetrics(),
		log:      log,
	}
}

type AddItemRequest struct {
	ProductID int `json:"product_id"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := h.sessions.Open(w, r)
		response.WriteSuccess(w, newCartResponse(store))
	}
}

func (h *CartHandler) HandleAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteValidationError(w, "Validation failed", map[string]string{"body": "invalid JSON"})
			return
		}
		if req.ProductID <= 0 {
			response.WriteValidationError(w, "Validation failed", map[string]string{"product_id": "product_id is required"})
			return
		}

		messages := &cartstore.Messages{}
		store := h.sessions.Open(w, r, cartstore.WithNotifier(messages))

		var message string
		if store.Add(req.ProductID) {
			h.metrics.Added()
			if all := messages.All(); len(all) > 0 {
				message = all[len(all)-1]
			}
		}

		response.WriteSuccess(w, newCartResponse(store), message)
	}
}

func (h *CartHandler) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := productIDFromPath(w, r)
		if !ok {
			return
		}

		var req UpdateItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
			response.WriteValidationError(w, "Validation failed", map[string]string{"quantity": "quantity is required"})
			return
		}

		store := h.sessions.Open(w, r)
		if err := store.UpdateQuantity(id, *req.Quantity); err != nil {
			response.WriteDomainError(w, err)
			return
		}
		h.metrics.Updated()

		response.WriteSuccess(w, newCartResponse(store))
	}
}

func (h *CartHandler) HandleRemove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := productIDFromPath(w, r)
		if !ok {
			return
		}

		store := h.sessions.Open(w, r)
		store.Remove(id)
		h.metrics.Removed()

		response.WriteSuccess(w, newCartResponse(store))
	}
}

func (h *CartHandler) HandleClear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := h.sessions.Open(w, r)
		store.Clear()
		h.metrics.Cleared()

		response.WriteSuccess(w, newCartResponse(store))
	}
}

func productIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		response.WriteValidationError(w, "Validation failed", map[string]string{"id": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}
