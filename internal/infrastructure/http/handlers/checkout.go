package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuzvak/storefront/internal/application/commands"
	"github.com/yuzvak/storefront/internal/infrastructure/http/middleware"
	"github.com/yuzvak/storefront/internal/infrastructure/http/response"
	"github.com/yuzvak/storefront/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

//go:embed templates/checkout.html
var templateFS embed.FS

var checkoutPage = template.Must(template.ParseFS(templateFS, "templates/checkout.html"))

type CheckoutHandler struct {
	sessions *CartSessions
	checkout *commands.CheckoutHandler
	log      *logger.Logger
}

func NewCheckoutHandler(sessions *CartSessions, checkout *commands.CheckoutHandler, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		checkout: checkout,
		log:      log,
	}
}

// HandleCheckout answers a browser with a self-submitting form and any other
// client with the form as JSON.
func (h *CheckoutHandler) HandleCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.LoggerFrom(r.Context(), h.log)
		metrics := monitoring.NewCheckoutMetrics()
		metrics.RecordAttempt()

		store := h.sessions.Open(w, r)

		resp, err := h.checkout.Handle(r.Context(), commands.CheckoutCommand{Lines: store.Lines()})
		if err != nil {
			log.Warn("Checkout refused", "error", err, "item_count", store.ItemCount())
			metrics.RecordFailure(err)
			response.WriteDomainError(w, err)
			return
		}
		metrics.RecordSuccess()

		if wantsHTML(r) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			if err := checkoutPage.Execute(w, resp); err != nil {
				log.Error("Failed to render checkout page", "error", err)
			}
			return
		}

		response.WriteSuccess(w, resp)
	}
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}
