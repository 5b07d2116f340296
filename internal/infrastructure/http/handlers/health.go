package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/yuzvak/storefront/internal/infrastructure/http/response"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

const (
	statusUp       = "UP"
	statusDown     = "DOWN"
	statusDisabled = "DISABLED"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db        Pinger
	redis     Pinger
	log       *logger.Logger
	startTime time.Time
}

// NewHealthHandler accepts nil for backends that are not configured.
func NewHealthHandler(db Pinger, redis Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redis,
		log:       log,
		startTime: time.Now().UTC(),
	}
}

type MemoryMetrics struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
}

type ServicesStatus struct {
	App      string `json:"app"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

type HealthData struct {
	ServicesStatus ServicesStatus `json:"services_status"`
	Uptime         string         `json:"uptime"`
	Memory         MemoryMetrics  `json:"memory"`
	Goroutines     int            `json:"goroutines"`
}

func (h *HealthHandler) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		data := HealthData{
			ServicesStatus: ServicesStatus{
				App:      statusUp,
				Database: h.check(ctx, "database", h.db),
				Redis:    h.check(ctx, "redis", h.redis),
			},
			Uptime: time.Since(h.startTime).String(),
			Memory: MemoryMetrics{
				Alloc:      mem.Alloc,
				TotalAlloc: mem.TotalAlloc,
				Sys:        mem.Sys,
				NumGC:      mem.NumGC,
			},
			Goroutines: runtime.NumGoroutine(),
		}

		response.WriteSuccess(w, data)
	}
}

func (h *HealthHandler) check(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return statusDisabled
	}
	if err := p.Ping(ctx); err != nil {
		h.log.Warn("Health check failed", "service", name, "error", err)
		return statusDown
	}
	return statusUp
}
