// Package app assembles the infrastructure and core services from a Config.
// The CLI and the API server both start from here.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/turtacn/molexplorer/internal/application/resolver"
	"github.com/turtacn/molexplorer/internal/application/suggest"
	"github.com/turtacn/molexplorer/internal/config"
	"github.com/turtacn/molexplorer/internal/infrastructure/database/redis"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molexplorer/internal/infrastructure/pubchem"
	"github.com/turtacn/molexplorer/internal/infrastructure/storage"
	"github.com/turtacn/molexplorer/internal/infrastructure/storage/minio"
	httpapi "github.com/turtacn/molexplorer/internal/interfaces/http"
	"github.com/turtacn/molexplorer/internal/interfaces/http/handlers"
	"github.com/turtacn/molexplorer/internal/interfaces/http/middleware"
)

// App holds everything built from one Config.
type App struct {
	Config *config.Config
	Logger logging.Logger

	Collector prometheus.MetricsCollector // nil when metrics are disabled
	Metrics   *prometheus.AppMetrics

	Client   *pubchem.Client
	Source   resolver.Source
	Resolver *resolver.Resolver
	Engine   *suggest.Engine
	Store    storage.ExportStore

	redis   *redis.Client
	version string
}

// Option configures New.
type Option func(*App)

// WithVersion sets the version reported by the health probes.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// New builds the application. Redis and MinIO are only contacted when
// enabled; a failure to reach an enabled backend is fatal.
func New(cfg *config.Config, logger logging.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: prometheus.NewNoopAppMetrics(), version: "dev"}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		a.Collector = collector
		a.Metrics = prometheus.NewAppMetrics(collector)
	}

	client, err := pubchem.NewClient(cfg.PubChem.BaseURL,
		pubchem.WithLookupTimeout(cfg.PubChem.LookupTimeout),
		pubchem.WithStructureTimeout(cfg.PubChem.StructureTimeout),
		pubchem.WithRateLimit(cfg.PubChem.RateLimitRPS),
		pubchem.WithRetryMax(cfg.PubChem.RetryMax),
		pubchem.WithUserAgent(cfg.PubChem.UserAgent),
		pubchem.WithLogger(logger),
		pubchem.WithRecorder(a.Metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("pubchem: %w", err)
	}
	a.Client = client
	a.Source = client

	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
		cache := redis.NewRedisCache(rc, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.TTL),
			redis.WithRecorder(a.Metrics))
		a.Source = pubchem.NewCachedSource(client, cache, cfg.Redis.TTL, logger)
	}

	if cfg.MinIO.Enabled {
		store, err := minio.NewStore(&cfg.MinIO, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("minio: %w", err)
		}
		a.Store = store
	} else {
		store, err := storage.NewFileStore(cfg.Explorer.ExportDir, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("export dir: %w", err)
		}
		a.Store = store
	}

	a.Resolver = resolver.New(a.Source, nil, resolver.WithLogger(logger), resolver.WithRecorder(a.Metrics))
	a.Engine = suggest.NewEngine(nil, nil, cfg.Suggest)

	logger.Info("application initialized",
		logging.String("pubchem", client.BaseURL()),
		logging.Bool("redis", a.redis != nil),
		logging.Bool("minio", cfg.MinIO.Enabled),
		logging.Bool("metrics", a.Collector != nil))
	return a, nil
}

// HealthCheckers returns the readiness checks of the enabled backends.
func (a *App) HealthCheckers() []handlers.HealthChecker {
	checks := []handlers.HealthChecker{
		handlers.CheckFunc("pubchem", func(context.Context) error {
			if a.Client.BaseURL() == "" {
				return fmt.Errorf("pubchem base url is empty")
			}
			return nil
		}),
	}
	if a.redis != nil {
		checks = append(checks, handlers.CheckFunc("redis", a.redis.Ping))
	}
	if s, ok := a.Store.(*minio.Store); ok {
		checks = append(checks, handlers.CheckFunc("minio", s.HealthCheck))
	}
	return checks
}

// Router builds the HTTP API. Exports go through the configured store.
func (a *App) Router() http.Handler {
	cfg := a.Config
	rc := httpapi.RouterConfig{
		CompoundHandler: handlers.NewCompoundHandler(a.Resolver, a.Source, a.Store, a.Logger),
		SuggestHandler:  handlers.NewSuggestHandler(a.Engine, a.Metrics),
		StyleHandler:    handlers.NewStyleHandler(a.Logger),
		RandomHandler:   handlers.NewRandomHandler(nil, nil),
		HealthHandler:   handlers.NewHealthHandler(a.version, a.HealthCheckers()...),
		RateLimiter: middleware.NewClientLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			Burst:             cfg.Server.RateLimitBurst,
		}),
		Logging: middleware.DefaultLoggingConfig(),
		Logger:  a.Logger,
		Metrics: a.Metrics,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)
		rc.CORS = &cors
	}
	if a.Collector != nil {
		rc.MetricsCollector = a.Collector
		rc.MetricsPath = cfg.Metrics.Path
		rc.Logging.SkipPaths = append(rc.Logging.SkipPaths, cfg.Metrics.Path)
	}
	return httpapi.NewRouter(rc)
}

// Server wraps Router in a Server bound to the configured address.
func (a *App) Server() *httpapi.Server {
	return httpapi.NewServer(a.Config.Server, a.Router(), a.Logger)
}

// Close releases the backends.
func (a *App) Close() {
	if a.Client != nil {
		_ = a.Client.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
