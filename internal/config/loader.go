package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/molexplorer/internal/application/suggest"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "MOLX"

var (
	ErrConfigFileNotFound = stderrors.New("config file not found")
	ErrConfigParseError   = stderrors.New("config parse error")
	ErrConfigValidation   = stderrors.New("config validation failed")
)

// newViper builds a Viper instance with YAML file type, the MOLX_ env prefix
// and "." → "_" key mapping, so "pubchem.base_url" resolves to
// MOLX_PUBCHEM_BASE_URL. Every key is seeded with its default; viper only
// consults the environment for keys it knows.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit_rps", d.Server.RateLimitRPS)
	v.SetDefault("server.rate_limit_burst", d.Server.RateLimitBurst)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output_paths", []string{})
	v.SetDefault("log.error_output_paths", []string{})

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("pubchem.base_url", d.PubChem.BaseURL)
	v.SetDefault("pubchem.lookup_timeout", d.PubChem.LookupTimeout)
	v.SetDefault("pubchem.structure_timeout", d.PubChem.StructureTimeout)
	v.SetDefault("pubchem.user_agent", d.PubChem.UserAgent)
	v.SetDefault("pubchem.rate_limit_rps", d.PubChem.RateLimitRPS)
	v.SetDefault("pubchem.retry_max", d.PubChem.RetryMax)

	v.SetDefault("suggest.max_results", d.Suggest.MaxResults)
	v.SetDefault("suggest.min_query_length", d.Suggest.MinQueryLength)
	v.SetDefault("suggest.max_distance", d.Suggest.MaxDistance)

	v.SetDefault("explorer.style", d.Explorer.Style)
	v.SetDefault("explorer.export_dir", d.Explorer.ExportDir)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.mode", d.Redis.Mode)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.master_name", "")
	v.SetDefault("redis.sentinel_addrs", []string{})
	v.SetDefault("redis.cluster_addrs", []string{})
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.bucket", d.MinIO.Bucket)
	v.SetDefault("minio.prefix", "")
	v.SetDefault("minio.presign_expiry", 0)
}

// Load reads the YAML file at configPath, merges MOLX_* environment
// overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config: %w: %q: %v", ErrConfigFileNotFound, configPath, err)
	}

	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: %w: %q: %v", ErrConfigParseError, configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from MOLX_* environment variables alone.
//
//	MOLX_<SECTION>_<FIELD>   e.g.  MOLX_SERVER_PORT, MOLX_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// Watch calls onChange with the re-parsed Config each time configPath
// changes on disk. A change that fails to parse or validate is logged and
// skipped. Watch does not block.
func Watch(configPath string, onChange func(*Config)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: %w: %q: %v", ErrConfigParseError, configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			logging.Default().Warn("ignoring invalid config change",
				logging.String("path", e.Name), logging.Err(err))
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// HotReload returns a Watch callback applying the settings that are safe to
// change at runtime: the log level and the suggestion tuning.
func HotReload(logger logging.Logger, engine *suggest.Engine) func(*Config) {
	return func(cfg *Config) {
		if ls, ok := logger.(logging.LevelSetter); ok {
			ls.SetLevel(cfg.Log.Level)
		}
		if engine != nil {
			engine.SetOptions(cfg.Suggest)
		}
		if logger != nil {
			logger.Info("configuration reloaded",
				logging.String("log_level", cfg.Log.Level),
				logging.Int("suggest_max_results", cfg.Suggest.MaxResults))
		}
	}
}

// MustLoad is Load that panics on error. It is meant for main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
