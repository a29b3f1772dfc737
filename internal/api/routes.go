package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fanout/internal/observability"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Handler        *Handler
	Metrics        *observability.Metrics
	MetricsHandler http.Handler // Prometheus scrape handler; nil disables /metrics
	Token          string       // Bearer token for /v1 routes; empty disables auth
}

// NewRouter creates the status server router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Outermost first
	r.Use(RecoveryMiddleware())
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware())
	if cfg.Metrics != nil {
		r.Use(MetricsMiddleware(cfg.Metrics))
	}

	h := cfg.Handler

	// Probes and scrapes, no auth
	r.Get("/livez", h.Livez)
	r.Get("/readyz", h.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Token))
		r.Get("/run", h.GetRun)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{jobId}", h.GetJob)
	})

	return r
}
