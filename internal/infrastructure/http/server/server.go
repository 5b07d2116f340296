package server

import (
	"context"
	"net/http"
	"time"

	"github.com/yuzvak/storefront/internal/infrastructure/http/handlers"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

type Handlers struct {
	Catalog  *handlers.CatalogHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Payment  *handlers.PaymentHandler
	Health   *handlers.HealthHandler
}

type Server struct {
	server   *http.Server
	logger   *logger.Logger
	handlers Handlers
}

func NewServer(addr string, h Handlers, logger *logger.Logger) *Server {
	s := &Server{
		logger:   logger,
		handlers: h,
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting HTTP server", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
