// Package resilience guards the remote ordering path. Retries with backoff
// absorb transient network blips; the circuit breaker stops hammering a dead
// API and lets the reconciler fall straight through to the local store.
package resilience

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fastfoodmaniya/storefront/core"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig provides sensible defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// FromCoreConfig adapts the shared retry configuration
func FromCoreConfig(cfg core.RetryConfig) *RetryConfig {
	rc := DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialInterval > 0 {
		rc.InitialDelay = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		rc.MaxDelay = cfg.MaxInterval
	}
	if cfg.Multiplier > 0 {
		rc.BackoffFactor = cfg.Multiplier
	}
	return rc
}

// Retry executes a function with retry logic. Errors that are not retryable
// (credential rejections, validation failures) abort immediately: retrying a
// rejected login would just re-reject it.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		// Check context
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !core.IsRetryable(err) {
			return err
		}
		lastErr = err

		// Don't sleep after the last attempt
		if attempt == config.MaxAttempts {
			break
		}

		// Calculate next delay with exponential backoff
		if attempt > 1 {
			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		// Add jitter if enabled to prevent synchronized retries
		if config.JitterEnabled {
			jitter := time.Duration(float64(delay) * 0.1 * math.Sin(float64(attempt)))
			delay += jitter
		}

		// Sleep with context cancellation
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	// Keep the last error kind visible to errors.Is so the caller can still
	// dispatch on ErrNetworkUnavailable after exhausting retries
	return fmt.Errorf("max retry attempts (%d) exceeded: %w: %w", config.MaxAttempts, core.ErrMaxRetriesExceeded, lastErr)
}

// RetryWithCircuitBreaker combines retry logic with circuit breaker
func RetryWithCircuitBreaker(ctx context.Context, config *RetryConfig, cb *CircuitBreaker, fn func() error) error {
	return Retry(ctx, config, func() error {
		if !cb.CanExecute() {
			return fmt.Errorf("circuit breaker %q: %w", cb.Name(), core.ErrCircuitBreakerOpen)
		}

		err := fn()
		if err != nil {
			cb.RecordResult(err)
			return err
		}

		cb.RecordResult(nil)
		return nil
	})
}
