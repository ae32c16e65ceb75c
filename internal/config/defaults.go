package config

import (
	"time"

	"github.com/turtacn/molexplorer/internal/application/render"
	"github.com/turtacn/molexplorer/internal/application/suggest"
	"github.com/turtacn/molexplorer/internal/infrastructure/database/redis"
	"github.com/turtacn/molexplorer/internal/infrastructure/pubchem"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerRateLimitRPS    = 2.0
	DefaultServerRateLimitBurst  = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "molexplorer"
	DefaultMetricsPath      = "/metrics"

	DefaultPubChemRateLimit = pubchem.DefaultRateLimit

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisMode = "standalone"

	DefaultMinIOBucket = "molx-exports"

	DefaultExportDir = "."
)

// ApplyDefaults fills every zero-value field in cfg. Fields already set are
// left unchanged so explicit configuration always wins. RateLimitRPS and
// RetryMax are not defaulted here because zero is meaningful for them; the
// loader seeds them instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.RateLimitRPS == 0 {
		cfg.Server.RateLimitRPS = DefaultServerRateLimitRPS
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultServerRateLimitBurst
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── PubChem ───────────────────────────────────────────────────────────────
	if cfg.PubChem.BaseURL == "" {
		cfg.PubChem.BaseURL = pubchem.DefaultBaseURL
	}
	if cfg.PubChem.LookupTimeout == 0 {
		cfg.PubChem.LookupTimeout = pubchem.DefaultLookupTimeout
	}
	if cfg.PubChem.StructureTimeout == 0 {
		cfg.PubChem.StructureTimeout = pubchem.DefaultStructureTimeout
	}

	// ── Suggest ───────────────────────────────────────────────────────────────
	if cfg.Suggest.MaxResults == 0 {
		cfg.Suggest.MaxResults = suggest.DefaultMaxResults
	}
	if cfg.Suggest.MinQueryLength == 0 {
		cfg.Suggest.MinQueryLength = suggest.DefaultMinQueryLength
	}
	if cfg.Suggest.MaxDistance == 0 {
		cfg.Suggest.MaxDistance = suggest.DefaultMaxDistance
	}

	// ── Explorer ──────────────────────────────────────────────────────────────
	if cfg.Explorer.Style == "" {
		cfg.Explorer.Style = string(render.DefaultStyle)
	}
	if cfg.Explorer.ExportDir == "" {
		cfg.Explorer.ExportDir = DefaultExportDir
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = redis.DefaultKeyPrefix
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = redis.DefaultTTL
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
}

// Defaults returns a Config holding only default values.
func Defaults() *Config {
	cfg := &Config{}
	cfg.PubChem.RateLimitRPS = DefaultPubChemRateLimit
	ApplyDefaults(cfg)
	return cfg
}
