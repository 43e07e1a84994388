package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
// Values come from environment variables (optionally seeded from .env)
// with the defaults below.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Trading backend
	GraphQLURL   string `env:"GRAPHQL_URL" envDefault:"http://localhost:4000/graphql"`
	GraphQLToken string `env:"GRAPHQL_TOKEN"`

	// HTTP client
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Resilience
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"3"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"100ms"`
	MaxConcurrency int           `env:"MAX_CONCURRENCY" envDefault:"50"`

	// Cache
	CacheBackend  string        `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string        `env:"REDIS_PREFIX" envDefault:"trading-dashboard:"`

	// Observability
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Dashboard
	Timezone        string        `env:"DASHBOARD_TIMEZONE" envDefault:"Local"`
	DefaultPageSize int           `env:"DEFAULT_PAGE_SIZE" envDefault:"10"`
	StreamInterval  time.Duration `env:"STREAM_INTERVAL" envDefault:"15s"`

	// Browser console origins allowed by CORS.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// MaxPageSize bounds page_size on every ledger endpoint.
const MaxPageSize = 100

// Load seeds the environment from .env (when present) and parses it.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	return parse(env.Options{})
}

// LoadFrom parses configuration from vars only, ignoring the process
// environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if strings.TrimSpace(c.GraphQLURL) == "" {
		errs = append(errs, errors.New("GRAPHQL_URL is required"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must not be negative"))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, errors.New("MAX_CONCURRENCY must be at least 1"))
	}
	switch c.CacheBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when CACHE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.CacheBackend))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("DASHBOARD_TIMEZONE: %w", err))
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and %d", MaxPageSize))
	}
	if c.StreamInterval < time.Second {
		errs = append(errs, errors.New("STREAM_INTERVAL must be at least 1s"))
	}
	return errors.Join(errs...)
}

// Location resolves DASHBOARD_TIMEZONE. "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
