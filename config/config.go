package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"

	"github.com/jonwraymond/gymcache/observe"
	"github.com/jonwraymond/gymcache/secret"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GYM_"

// Config holds all dashboard settings.
type Config struct {
	API           APIConfig           `mapstructure:"api" envPrefix:"API_"`
	Session       SessionConfig       `mapstructure:"session" envPrefix:"SESSION_"`
	Credentials   Credentials         `mapstructure:"credentials"`
	Log           LogConfig           `mapstructure:"log" envPrefix:"LOG_"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry" envPrefix:"TELEMETRY_"`
	ResponseCache ResponseCacheConfig `mapstructure:"response_cache" envPrefix:"RESPONSE_CACHE_"`
	Engine        EngineConfig        `mapstructure:"engine" envPrefix:"ENGINE_"`
	Revalidation  RevalidationConfig  `mapstructure:"revalidation" envPrefix:"REVALIDATE_"`
	Debug         DebugConfig         `mapstructure:"debug" envPrefix:"DEBUG_"`
}

// APIConfig locates the gym REST API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" env:"BASE_URL"`
	Timeout time.Duration `mapstructure:"timeout" env:"TIMEOUT"`
}

// SessionConfig selects the durable session storage.
type SessionConfig struct {
	Backend string      `mapstructure:"backend" env:"BACKEND"` // file|redis|memory
	Path    string      `mapstructure:"path" env:"PATH"`
	Codec   string      `mapstructure:"codec" env:"CODEC"` // json|msgpack|cbor
	Redis   RedisConfig `mapstructure:"redis" envPrefix:"REDIS_"`
}

// RedisConfig is used by the redis session backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" env:"ADDR"`
	Password string        `mapstructure:"password" env:"PASSWORD"`
	DB       int           `mapstructure:"db" env:"DB"`
	Key      string        `mapstructure:"key" env:"KEY"`
	TTL      time.Duration `mapstructure:"ttl" env:"TTL"`
}

// Credentials log the CLI in on start. Both empty means stay anonymous.
type Credentials struct {
	Username string `mapstructure:"username" env:"USERNAME"`
	Password string `mapstructure:"password" env:"PASSWORD"`
}

type LogConfig struct {
	Level   string `mapstructure:"level" env:"LEVEL"`
	Backend string `mapstructure:"backend" env:"BACKEND"`
}

type TelemetryConfig struct {
	ServiceName     string  `mapstructure:"service_name" env:"SERVICE_NAME"`
	TracingExporter string  `mapstructure:"tracing_exporter" env:"TRACING_EXPORTER"`
	SamplePct       float64 `mapstructure:"sample_pct" env:"SAMPLE_PCT"`
	MetricsExporter string  `mapstructure:"metrics_exporter" env:"METRICS_EXPORTER"`
}

// ResponseCacheConfig controls the conditional-GET response cache.
type ResponseCacheConfig struct {
	Enabled    bool          `mapstructure:"enabled" env:"ENABLED"`
	MaxSizeMB  int           `mapstructure:"max_size_mb" env:"MAX_SIZE_MB"`
	LifeWindow time.Duration `mapstructure:"life_window" env:"LIFE_WINDOW"`
}

type EngineConfig struct {
	MaxConcurrent  int           `mapstructure:"max_concurrent" env:"MAX_CONCURRENT"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" env:"ATTEMPT_TIMEOUT"`
}

// RevalidationConfig tunes the per-resource policies.
type RevalidationConfig struct {
	UserRefresh        time.Duration `mapstructure:"user_refresh" env:"USER_REFRESH"`
	ExercisesRefresh   time.Duration `mapstructure:"exercises_refresh" env:"EXERCISES_REFRESH"`
	RoutinesRefresh    time.Duration `mapstructure:"routines_refresh" env:"ROUTINES_REFRESH"`
	AdminUsersRefresh  time.Duration `mapstructure:"admin_users_refresh" env:"ADMIN_USERS_REFRESH"`
	ErrorRetryCount    int           `mapstructure:"error_retry_count" env:"ERROR_RETRY_COUNT"`
	ErrorRetryInterval time.Duration `mapstructure:"error_retry_interval" env:"ERROR_RETRY_INTERVAL"`

	// DedupingInterval is a lower bound; resources with a longer window
	// keep it.
	DedupingInterval time.Duration `mapstructure:"deduping_interval" env:"DEDUPING_INTERVAL"`
}

// DebugConfig configures the health and metrics listener. Empty Addr
// disables it.
type DebugConfig struct {
	Addr string `mapstructure:"addr" env:"ADDR"`
}

// Load reads configuration from path (optional), then the environment, then
// resolves secret references and validates the result.
func Load(ctx context.Context, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.resolveSecrets(ctx, secret.NewResolver(true)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are static; decoding them cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", "15s")

	v.SetDefault("session.backend", "file")
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("session.codec", "json")
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.key", "gymcache:session")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.backend", "zap")

	v.SetDefault("telemetry.service_name", "gymdash")
	v.SetDefault("telemetry.tracing_exporter", "none")
	v.SetDefault("telemetry.sample_pct", 1.0)
	v.SetDefault("telemetry.metrics_exporter", "prometheus")

	v.SetDefault("response_cache.enabled", true)
	v.SetDefault("response_cache.max_size_mb", 32)
	v.SetDefault("response_cache.life_window", "10m")

	v.SetDefault("engine.max_concurrent", 8)
	v.SetDefault("engine.attempt_timeout", "0s")

	v.SetDefault("revalidation.user_refresh", "30s")
	v.SetDefault("revalidation.exercises_refresh", "300s")
	v.SetDefault("revalidation.routines_refresh", "60s")
	v.SetDefault("revalidation.admin_users_refresh", "120s")
	v.SetDefault("revalidation.error_retry_count", 3)
	v.SetDefault("revalidation.error_retry_interval", "5s")
	v.SetDefault("revalidation.deduping_interval", "2s")

	v.SetDefault("debug.addr", "")
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gymcache-session.json"
	}
	return filepath.Join(dir, "gymcache", "session.json")
}

func (c *Config) resolveSecrets(ctx context.Context, r *secret.Resolver) error {
	err := r.ResolveFields(ctx, map[string]*string{
		"api.base_url":           &c.API.BaseURL,
		"session.path":           &c.Session.Path,
		"session.redis.addr":     &c.Session.Redis.Addr,
		"session.redis.password": &c.Session.Redis.Password,
		"credentials.username":   &c.Credentials.Username,
		"credentials.password":   &c.Credentials.Password,
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case "memory":
	case "file":
		if c.Session.Path == "" {
			return ErrMissingPath
		}
	case "redis":
		if c.Session.Redis.Addr == "" {
			return ErrMissingRedis
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Session.Backend)
	}

	switch c.Session.Codec {
	case "", "json", "msgpack", "cbor":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCodec, c.Session.Codec)
	}

	if c.Engine.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: engine.max_concurrent = %d", ErrInvalidLimit, c.Engine.MaxConcurrent)
	}
	if c.Revalidation.ErrorRetryCount < 0 {
		return fmt.Errorf("%w: revalidation.error_retry_count = %d", ErrInvalidLimit, c.Revalidation.ErrorRetryCount)
	}

	durations := map[string]time.Duration{
		"api.timeout":                       c.API.Timeout,
		"engine.attempt_timeout":            c.Engine.AttemptTimeout,
		"revalidation.user_refresh":         c.Revalidation.UserRefresh,
		"revalidation.exercises_refresh":    c.Revalidation.ExercisesRefresh,
		"revalidation.routines_refresh":     c.Revalidation.RoutinesRefresh,
		"revalidation.admin_users_refresh":  c.Revalidation.AdminUsersRefresh,
		"revalidation.error_retry_interval": c.Revalidation.ErrorRetryInterval,
		"revalidation.deduping_interval":    c.Revalidation.DedupingInterval,
		"session.redis.ttl":                 c.Session.Redis.TTL,
	}
	var errs []error
	for name, d := range durations {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%w: %s = %s", ErrInvalidDuration, name, d))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	oc := c.Observe()
	return oc.Validate()
}

// Observe converts the logging and telemetry settings.
func (c *Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.Telemetry.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.TracingExporter != "" && c.Telemetry.TracingExporter != "none",
			Exporter:  c.Telemetry.TracingExporter,
			SamplePct: c.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.MetricsExporter != "" && c.Telemetry.MetricsExporter != "none",
			Exporter: c.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Log.Level,
			Backend: c.Log.Backend,
		},
	}
}
