package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fastfoodmaniya/storefront/core"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// StateClosed allows all requests through
	StateClosed CircuitState = iota
	// StateOpen blocks all requests
	StateOpen
	// StateHalfOpen allows limited requests for testing
	StateHalfOpen
)

// String returns the string representation of the state
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrorClassifier determines which errors count toward the failure threshold
type ErrorClassifier func(error) bool

// DefaultErrorClassifier only counts infrastructure errors. A rejected
// credential or an empty cart says nothing about the health of the API.
func DefaultErrorClassifier(err error) bool {
	if err == nil {
		return false
	}
	if core.IsUserError(err) {
		return false
	}
	if errors.Is(err, core.ErrCircuitBreakerOpen) {
		return false
	}
	return core.IsRetryable(err)
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker
	Name string

	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int

	// SleepWindow is how long to wait before entering half-open state
	SleepWindow time.Duration

	// HalfOpenRequests is the number of test requests allowed in half-open
	HalfOpenRequests int

	// ErrorClassifier determines which errors count as failures
	ErrorClassifier ErrorClassifier

	// Logger for circuit breaker events
	Logger core.Logger
}

// DefaultCircuitBreakerConfig returns production-ready defaults
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SleepWindow:      30 * time.Second,
		HalfOpenRequests: 3,
		ErrorClassifier:  DefaultErrorClassifier,
		Logger:           &core.NoOpLogger{},
	}
}

// CircuitBreaker protects the remote API from repeated calls while it is
// failing. Closed passes everything through; after FailureThreshold
// consecutive counted failures it opens, and after SleepWindow it admits a
// limited number of probes before deciding to close or re-open.
type CircuitBreaker struct {
	config *CircuitBreakerConfig

	mu             sync.Mutex
	state          CircuitState
	failures       int
	stateChangedAt time.Time
	halfOpenInUse  int
	halfOpenOK     int
}

// NewCircuitBreaker creates a circuit breaker in the closed state
func NewCircuitBreaker(config *CircuitBreakerConfig) (*CircuitBreaker, error) {
	if config == nil {
		config = DefaultCircuitBreakerConfig("default")
	}
	if config.Name == "" {
		return nil, fmt.Errorf("circuit breaker name is required: %w", core.ErrInvalidConfiguration)
	}
	if config.FailureThreshold < 1 {
		return nil, fmt.Errorf("failure threshold must be at least 1, got %d: %w",
			config.FailureThreshold, core.ErrInvalidConfiguration)
	}
	if config.HalfOpenRequests < 1 {
		config.HalfOpenRequests = 1
	}
	if config.ErrorClassifier == nil {
		config.ErrorClassifier = DefaultErrorClassifier
	}
	if config.Logger == nil {
		config.Logger = &core.NoOpLogger{}
	}

	return &CircuitBreaker{
		config:         config,
		state:          StateClosed,
		stateChangedAt: time.Now(),
	}, nil
}

// Name returns the breaker's identifier
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// CanExecute reports whether a request may proceed, transitioning from open
// to half-open when the sleep window has elapsed
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.stateChangedAt) > cb.config.SleepWindow {
			cb.transitionTo(StateHalfOpen)
			cb.halfOpenInUse = 1
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenInUse < cb.config.HalfOpenRequests {
			cb.halfOpenInUse++
			return true
		}
		return false
	default:
		return false
	}
}

// RecordResult records the outcome of an executed request
func (cb *CircuitBreaker) RecordResult(err error) {
	counted := err != nil && cb.config.ErrorClassifier(err)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		if counted {
			cb.failures++
			if cb.failures >= cb.config.FailureThreshold {
				cb.transitionTo(StateOpen)
			}
		} else if err == nil {
			cb.failures = 0
		}

	case StateHalfOpen:
		if counted {
			// One failed probe re-opens the circuit
			cb.transitionTo(StateOpen)
			return
		}
		if err == nil {
			cb.halfOpenOK++
			if cb.halfOpenOK >= cb.config.HalfOpenRequests {
				cb.transitionTo(StateClosed)
			}
		}
	}
}

// Reset forces the breaker back to closed, clearing all counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(StateClosed)
}

// transitionTo changes state (must be called with lock held)
func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	oldState := cb.state
	if oldState == newState && cb.failures == 0 {
		return
	}

	cb.state = newState
	cb.stateChangedAt = time.Now()
	cb.failures = 0
	cb.halfOpenInUse = 0
	cb.halfOpenOK = 0

	if oldState != newState {
		cb.config.Logger.Info("Circuit breaker state changed", map[string]interface{}{
			"operation": "circuit_breaker_transition",
			"name":      cb.config.Name,
			"from":      oldState.String(),
			"to":        newState.String(),
		})
	}
}
