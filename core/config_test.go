package core

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Name != "storefront" {
		t.Errorf("Name = %q, want storefront", cfg.Name)
	}
	if cfg.Store.Provider != "inmemory" {
		t.Errorf("Store.Provider = %q, want inmemory", cfg.Store.Provider)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if !cfg.Resilience.CircuitBreaker.Enabled {
		t.Error("circuit breaker should be enabled by default")
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should be disabled by default")
	}
}

func TestNewConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "http://orders.internal:3000")
	t.Setenv("STOREFRONT_LOG_LEVEL", "DEBUG")
	t.Setenv("STOREFRONT_CB_THRESHOLD", "7")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() failed: %v", err)
	}

	if cfg.API.BaseURL != "http://orders.internal:3000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Resilience.CircuitBreaker.Threshold != 7 {
		t.Errorf("CircuitBreaker.Threshold = %d, want 7", cfg.Resilience.CircuitBreaker.Threshold)
	}
	if cfg.Store.RedisURL != "redis://localhost:6379" {
		t.Errorf("Store.RedisURL = %q", cfg.Store.RedisURL)
	}
}

func TestNewConfig_OptionsOverrideEnv(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "http://from-env:3000")

	cfg, err := NewConfig(WithAPIBaseURL("http://from-option:3000"))
	if err != nil {
		t.Fatalf("NewConfig() failed: %v", err)
	}

	if cfg.API.BaseURL != "http://from-option:3000" {
		t.Errorf("API.BaseURL = %q, options must win over env", cfg.API.BaseURL)
	}
}

func TestNewConfig_RedisOptionSwitchesProvider(t *testing.T) {
	cfg, err := NewConfig(WithRedisURL("redis://localhost:6379"))
	if err != nil {
		t.Fatalf("NewConfig() failed: %v", err)
	}
	if cfg.Store.Provider != "redis" {
		t.Errorf("Store.Provider = %q, want redis", cfg.Store.Provider)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"redis without URL", func(c *Config) { c.Store.Provider = "redis"; c.Store.RedisURL = "" }},
		{"unknown provider", func(c *Config) { c.Store.Provider = "etcd" }},
		{"zero cb threshold", func(c *Config) { c.Resilience.CircuitBreaker.Threshold = 0 }},
		{"zero retry attempts", func(c *Config) { c.Resilience.Retry.MaxAttempts = 0 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestOption_Errors(t *testing.T) {
	if _, err := NewConfig(WithName("")); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("WithName(\"\") error = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := NewConfig(WithAPITimeout(-time.Second)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("WithAPITimeout(-1s) error = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := NewConfig(WithRetry(0, time.Second)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("WithRetry(0) error = %v, want ErrInvalidConfiguration", err)
	}
}
