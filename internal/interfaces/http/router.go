// Package http wires the API handlers and middleware into a server.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molexplorer/internal/interfaces/http/handlers"
	"github.com/turtacn/molexplorer/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the route tree. Nil
// handlers leave their routes unregistered; nil middleware is skipped.
type RouterConfig struct {
	// Handlers
	CompoundHandler *handlers.CompoundHandler
	SuggestHandler  *handlers.SuggestHandler
	StyleHandler    *handlers.StyleHandler
	RandomHandler   *handlers.RandomHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	CORS        *middleware.CORSConfig
	RateLimiter *middleware.ClientLimiter
	Logging     middleware.LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the route tree. Probes and /metrics sit outside the rate
// limit; everything under /api/v1 is limited per client.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(middleware.RateLimit(cfg.RateLimiter))
		}

		registerCompoundRoutes(api, cfg.CompoundHandler)
		if cfg.SuggestHandler != nil {
			api.Get("/suggestions", cfg.SuggestHandler.List)
		}
		if cfg.RandomHandler != nil {
			api.Get("/random", cfg.RandomHandler.Get)
		}
		registerStyleRoutes(api, cfg.StyleHandler)
	})

	return r
}

// registerCompoundRoutes mounts lookups under /compounds.
func registerCompoundRoutes(r chi.Router, h *handlers.CompoundHandler) {
	if h == nil {
		return
	}
	r.Get("/compounds", h.Search)
	r.Get("/compounds/{query}", h.Get)
	r.Get("/compounds/{query}/structure", h.Structure)
	r.Post("/compounds/{query}/exports", h.Export)
}

func registerStyleRoutes(r chi.Router, h *handlers.StyleHandler) {
	if h == nil {
		return
	}
	r.Get("/styles", h.List)
	r.Get("/styles/{style}", h.Get)
}
