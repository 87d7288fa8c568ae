package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration options for the storefront.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithAPIBaseURL("https://api.example.com"),
//	    WithRedisURL("redis://localhost:6379"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Name identifies this storefront instance in logs and telemetry
	Name string `json:"name" env:"STOREFRONT_NAME"`

	// API configuration for the remote ordering service
	API APIConfig `json:"api"`

	// Store configuration for the local fallback store
	Store StoreConfig `json:"store"`

	// Telemetry configuration (optional module)
	Telemetry TelemetryConfig `json:"telemetry"`

	// Resilience configuration
	Resilience ResilienceConfig `json:"resilience"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`
}

// APIConfig contains the remote ordering API client configuration
type APIConfig struct {
	BaseURL string        `json:"base_url" env:"STOREFRONT_API_URL"`
	Timeout time.Duration `json:"timeout" env:"STOREFRONT_API_TIMEOUT" default:"10s"`
}

// StoreConfig contains local fallback store configuration.
// Supports in-memory storage (default) or Redis for durability across
// restarts.
type StoreConfig struct {
	Provider   string        `json:"provider" env:"STOREFRONT_STORE_PROVIDER" default:"inmemory"`
	RedisURL   string        `json:"redis_url" env:"STOREFRONT_REDIS_URL,REDIS_URL"`
	Namespace  string        `json:"namespace" env:"STOREFRONT_STORE_NAMESPACE" default:"storefront:fallback"`
	DefaultTTL time.Duration `json:"default_ttl" env:"STOREFRONT_STORE_DEFAULT_TTL"`
}

// TelemetryConfig contains observability configuration for metrics and
// distributed tracing. This is an optional module - telemetry is only
// initialized when Enabled=true.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled" env:"STOREFRONT_TELEMETRY_ENABLED" default:"false"`
	Endpoint    string `json:"endpoint" env:"STOREFRONT_TELEMETRY_ENDPOINT,OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `json:"service_name" env:"STOREFRONT_TELEMETRY_SERVICE_NAME,OTEL_SERVICE_NAME"`
	Insecure    bool   `json:"insecure" env:"STOREFRONT_TELEMETRY_INSECURE" default:"true"`
}

// ResilienceConfig contains fault tolerance settings for the remote path
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
	Retry          RetryConfig          `json:"retry"`
}

// CircuitBreakerConfig defines circuit breaker settings for the remote API.
// After Threshold consecutive failures the circuit opens and order
// submissions go straight to the local-first path until the sleep window
// elapses.
type CircuitBreakerConfig struct {
	Enabled          bool          `json:"enabled" env:"STOREFRONT_CB_ENABLED" default:"true"`
	Threshold        int           `json:"threshold" env:"STOREFRONT_CB_THRESHOLD" default:"5"`
	SleepWindow      time.Duration `json:"sleep_window" env:"STOREFRONT_CB_SLEEP_WINDOW" default:"30s"`
	HalfOpenRequests int           `json:"half_open_requests" env:"STOREFRONT_CB_HALF_OPEN" default:"3"`
}

// RetryConfig defines retry settings with exponential backoff.
// Formula: interval = min(InitialInterval * (Multiplier ^ attempt), MaxInterval)
type RetryConfig struct {
	MaxAttempts     int           `json:"max_attempts" env:"STOREFRONT_RETRY_MAX_ATTEMPTS" default:"3"`
	InitialInterval time.Duration `json:"initial_interval" env:"STOREFRONT_RETRY_INITIAL_INTERVAL" default:"100ms"`
	MaxInterval     time.Duration `json:"max_interval" env:"STOREFRONT_RETRY_MAX_INTERVAL" default:"5s"`
	Multiplier      float64       `json:"multiplier" env:"STOREFRONT_RETRY_MULTIPLIER" default:"2.0"`
}

// LoggingConfig contains logging configuration.
// Supports structured (JSON) and human-readable (text) formats.
type LoggingConfig struct {
	Level  string `json:"level" env:"STOREFRONT_LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"STOREFRONT_LOG_FORMAT" default:"json"`
	Output string `json:"output" env:"STOREFRONT_LOG_OUTPUT" default:"stdout"`
}

// Option is a functional option for configuring the storefront.
// Options are applied in order and can return an error if invalid.
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Name: "storefront",
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Provider:  "inmemory",
			Namespace: "storefront:fallback",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Insecure: true,
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				Threshold:        5,
				SleepWindow:      30 * time.Second,
				HalfOpenRequests: 3,
			},
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      2.0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// NewConfig creates a configuration: defaults, then environment variables,
// then functional options, then validation.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables take precedence over defaults but are overridden by
// functional options.
//
// Variable naming convention:
//   - Storefront-specific: STOREFRONT_<SETTING>
//   - Standard variables: REDIS_URL, OTEL_EXPORTER_OTLP_ENDPOINT
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("STOREFRONT_NAME"); v != "" {
		c.Name = v
	}

	// API settings
	if v := os.Getenv("STOREFRONT_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("STOREFRONT_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = d
		}
	}

	// Store settings
	if v := os.Getenv("STOREFRONT_STORE_PROVIDER"); v != "" {
		c.Store.Provider = v
	}
	if v := os.Getenv("STOREFRONT_REDIS_URL"); v != "" {
		c.Store.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Store.RedisURL = v
	}
	if v := os.Getenv("STOREFRONT_STORE_NAMESPACE"); v != "" {
		c.Store.Namespace = v
	}
	if v := os.Getenv("STOREFRONT_STORE_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Store.DefaultTTL = d
		}
	}

	// Telemetry settings
	if v := os.Getenv("STOREFRONT_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("STOREFRONT_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	} else if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("STOREFRONT_TELEMETRY_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	} else if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv("STOREFRONT_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = parseBool(v)
	}

	// Resilience settings
	if v := os.Getenv("STOREFRONT_CB_ENABLED"); v != "" {
		c.Resilience.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("STOREFRONT_CB_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Resilience.CircuitBreaker.Threshold = n
		}
	}
	if v := os.Getenv("STOREFRONT_CB_SLEEP_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Resilience.CircuitBreaker.SleepWindow = d
		}
	}
	if v := os.Getenv("STOREFRONT_RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Resilience.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("STOREFRONT_RETRY_INITIAL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Resilience.Retry.InitialInterval = d
		}
	}

	// Logging settings
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("STOREFRONT_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("STOREFRONT_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}

	return nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidConfiguration)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %v: %w", c.API.Timeout, ErrInvalidConfiguration)
	}

	switch c.Store.Provider {
	case "inmemory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("redis store provider requires a redis URL: %w", ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("unknown store provider %q: %w", c.Store.Provider, ErrInvalidConfiguration)
	}

	if c.Resilience.CircuitBreaker.Threshold < 1 {
		return fmt.Errorf("circuit breaker threshold must be at least 1, got %d: %w",
			c.Resilience.CircuitBreaker.Threshold, ErrInvalidConfiguration)
	}
	if c.Resilience.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d: %w",
			c.Resilience.Retry.MaxAttempts, ErrInvalidConfiguration)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q: %w", c.Logging.Format, ErrInvalidConfiguration)
	}

	return nil
}

// parseBool parses common boolean environment values
func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Functional options

// WithName sets the instance name
func WithName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("name cannot be empty: %w", ErrInvalidConfiguration)
		}
		c.Name = name
		return nil
	}
}

// WithAPIBaseURL sets the remote ordering API base URL
func WithAPIBaseURL(url string) Option {
	return func(c *Config) error {
		c.API.BaseURL = url
		return nil
	}
}

// WithAPITimeout sets the remote API request timeout
func WithAPITimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive: %w", ErrInvalidConfiguration)
		}
		c.API.Timeout = timeout
		return nil
	}
}

// WithRedisURL selects the Redis store provider with the given URL
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Store.Provider = "redis"
		c.Store.RedisURL = url
		return nil
	}
}

// WithStoreNamespace sets the fallback store key namespace
func WithStoreNamespace(namespace string) Option {
	return func(c *Config) error {
		c.Store.Namespace = namespace
		return nil
	}
}

// WithTelemetry enables telemetry with the given OTLP endpoint
func WithTelemetry(endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

// WithCircuitBreaker configures the remote-path circuit breaker
func WithCircuitBreaker(threshold int, sleepWindow time.Duration) Option {
	return func(c *Config) error {
		if threshold < 1 {
			return fmt.Errorf("threshold must be at least 1: %w", ErrInvalidConfiguration)
		}
		c.Resilience.CircuitBreaker.Enabled = true
		c.Resilience.CircuitBreaker.Threshold = threshold
		c.Resilience.CircuitBreaker.SleepWindow = sleepWindow
		return nil
	}
}

// WithRetry configures remote call retries
func WithRetry(maxAttempts int, initialInterval time.Duration) Option {
	return func(c *Config) error {
		if maxAttempts < 1 {
			return fmt.Errorf("max attempts must be at least 1: %w", ErrInvalidConfiguration)
		}
		c.Resilience.Retry.MaxAttempts = maxAttempts
		c.Resilience.Retry.InitialInterval = initialInterval
		return nil
	}
}

// WithLogLevel sets the log level (debug, info, warn, error)
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = strings.ToLower(level)
		return nil
	}
}

// WithLogFormat sets the log format (json or text)
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = strings.ToLower(format)
		return nil
	}
}
