package monitoring

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPMetricsMiddleware struct {
	next http.Handler
}

func NewHTTPMetricsMiddleware(next http.Handler) *HTTPMetricsMiddleware {
	return &HTTPMetricsMiddleware{
		next: next,
	}
}

func (m *HTTPMetricsMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	wrapped := &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}

	handlerName := extractHandlerName(r.URL.Path)

	m.next.ServeHTTP(wrapped, r)

	duration := time.Since(start).Seconds()
	statusCode := strconv.Itoa(wrapped.statusCode)

	HTTPRequestDuration.WithLabelValues(handlerName, r.Method, statusCode).Observe(duration)
	HTTPRequestsTotal.WithLabelValues(handlerName, r.Method, statusCode).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// extractHandlerName collapses paths with ids so label values stay bounded.
func extractHandlerName(path string) string {
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "products":
		return "products"
	case strings.HasPrefix(path, "products/"):
		return "product"
	case path == "cart":
		return "cart"
	case strings.HasPrefix(path, "cart/items"):
		return "cart_items"
	case path == "checkout":
		return "checkout"
	case path == "verify-payment":
		return "verify_payment"
	case path == "payment/success":
		return "payment_success"
	case path == "payment/failure":
		return "payment_failure"
	case path == "metrics":
		return "metrics"
	case path == "health":
		return "health"
	default:
		return "unknown"
	}
}

func WrapHandler(handler http.Handler) http.Handler {
	return NewHTTPMetricsMiddleware(handler)
}
