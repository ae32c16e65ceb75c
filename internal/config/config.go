// Package config defines the configuration structures of molexplorer. No I/O
// or parsing happens here, only plain data types and validation.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/turtacn/molexplorer/internal/application/render"
	"github.com/turtacn/molexplorer/internal/application/suggest"
	"github.com/turtacn/molexplorer/internal/infrastructure/database/redis"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/internal/infrastructure/storage/minio"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins    []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	Path      string `mapstructure:"path" yaml:"path"`
}

// PubChemConfig holds the compound database client settings.
type PubChemConfig struct {
	BaseURL          string        `mapstructure:"base_url" yaml:"base_url"`
	LookupTimeout    time.Duration `mapstructure:"lookup_timeout" yaml:"lookup_timeout"`
	StructureTimeout time.Duration `mapstructure:"structure_timeout" yaml:"structure_timeout"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	RateLimitRPS     int           `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RetryMax         int           `mapstructure:"retry_max" yaml:"retry_max"`
}

// ExplorerConfig holds front-end defaults.
type ExplorerConfig struct {
	Style     string `mapstructure:"style" yaml:"style"`
	ExportDir string `mapstructure:"export_dir" yaml:"export_dir"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig      `mapstructure:"server" yaml:"server"`
	Log      logging.LogConfig `mapstructure:"log" yaml:"log"`
	Metrics  MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	PubChem  PubChemConfig     `mapstructure:"pubchem" yaml:"pubchem"`
	Suggest  suggest.Options   `mapstructure:"suggest" yaml:"suggest"`
	Explorer ExplorerConfig    `mapstructure:"explorer" yaml:"explorer"`
	Redis    redis.RedisConfig `mapstructure:"redis" yaml:"redis"`
	MinIO    minio.MinIOConfig `mapstructure:"minio" yaml:"minio"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("config: server timeouts must not be negative")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("config: server rate limits must not be negative")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	// PubChem
	u, err := url.Parse(c.PubChem.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: pubchem.base_url %q must be an absolute http(s) URL", c.PubChem.BaseURL)
	}
	if c.PubChem.LookupTimeout <= 0 || c.PubChem.StructureTimeout <= 0 {
		return fmt.Errorf("config: pubchem timeouts must be positive")
	}
	if c.PubChem.RateLimitRPS < 0 {
		return fmt.Errorf("config: pubchem.rate_limit_rps must be ≥ 0, got %d", c.PubChem.RateLimitRPS)
	}
	if c.PubChem.RetryMax < 0 {
		return fmt.Errorf("config: pubchem.retry_max must be ≥ 0, got %d", c.PubChem.RetryMax)
	}

	// Suggest
	if c.Suggest.MaxResults < 1 {
		return fmt.Errorf("config: suggest.max_results must be ≥ 1, got %d", c.Suggest.MaxResults)
	}
	if c.Suggest.MinQueryLength < 1 {
		return fmt.Errorf("config: suggest.min_query_length must be ≥ 1, got %d", c.Suggest.MinQueryLength)
	}
	if c.Suggest.MaxDistance < 1 {
		return fmt.Errorf("config: suggest.max_distance must be ≥ 1, got %d", c.Suggest.MaxDistance)
	}

	// Explorer
	if _, err := render.ParseStyle(c.Explorer.Style); err != nil {
		return fmt.Errorf("config: explorer.style %q is invalid", c.Explorer.Style)
	}

	// Redis
	if c.Redis.Enabled {
		switch c.Redis.Mode {
		case "standalone":
			if c.Redis.Addr == "" {
				return fmt.Errorf("config: redis.addr is required")
			}
		case "sentinel":
			if c.Redis.MasterName == "" || len(c.Redis.SentinelAddrs) == 0 {
				return fmt.Errorf("config: redis sentinel mode needs master_name and sentinel_addrs")
			}
		case "cluster":
			if len(c.Redis.ClusterAddrs) == 0 {
				return fmt.Errorf("config: redis cluster mode needs cluster_addrs")
			}
		default:
			return fmt.Errorf("config: redis.mode %q is invalid; expected standalone|sentinel|cluster", c.Redis.Mode)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// MinIO
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required")
		}
	}

	return nil
}
