package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yuzvak/storefront/internal/infrastructure/http/middleware"
	"github.com/yuzvak/storefront/internal/infrastructure/monitoring"
)

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", s.handlers.Health.HandleHealth())

	mux.HandleFunc("GET /products", s.handlers.Catalog.HandleList())
	mux.HandleFunc("GET /products/{id}", s.handlers.Catalog.HandleGet())

	mux.HandleFunc("GET /cart", s.handlers.Cart.HandleGet())
	mux.HandleFunc("DELETE /cart", s.handlers.Cart.HandleClear())
	mux.HandleFunc("POST /cart/items", s.handlers.Cart.HandleAdd())
	mux.HandleFunc("PUT /cart/items/{id}", s.handlers.Cart.HandleUpdate())
	mux.HandleFunc("DELETE /cart/items/{id}", s.handlers.Cart.HandleRemove())

	mux.HandleFunc("POST /checkout", s.handlers.Checkout.HandleCheckout())
	mux.HandleFunc("POST /verify-payment", s.handlers.Payment.HandleVerify())
	mux.HandleFunc("GET /payment/success", s.handlers.Payment.HandleSuccess())
	mux.HandleFunc("GET /payment/failure", s.handlers.Payment.HandleFailure())

	handler := middleware.NewRecoveryMiddleware(s.logger)(mux)
	handler = middleware.NewLoggingMiddleware(s.logger)(handler)
	handler = monitoring.WrapHandler(handler)
	handler = s.corsMiddleware(handler)
	handler = s.timeoutMiddleware(handler)

	return handler
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.TimeoutHandler(next, 30*time.Second, "Request timeout")
}
