package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Cart errors
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrEmptyCart       = errors.New("cart is empty")

	// Session errors
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrCredentialRejected = errors.New("credentials rejected")
	ErrSubmissionInFlight = errors.New("order submission already in flight")

	// Order errors
	ErrOrderNotFound = errors.New("order not found")

	// Account errors
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	// Remote API errors
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrServerError        = errors.New("server error")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Store errors
	ErrConnectionFailed = errors.New("connection failed")

	// Resilience errors
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// StorefrontError provides structured error information with context
// It implements the error interface and supports error wrapping
type StorefrontError struct {
	Op      string // Operation that failed (e.g., "session.Login")
	Kind    string // Error kind (e.g., "cart", "session", "api")
	ID      string // Optional ID of the entity involved
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *StorefrontError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *StorefrontError) Unwrap() error {
	return e.Err
}

// NewStorefrontError creates a new StorefrontError
func NewStorefrontError(op, kind string, err error) *StorefrontError {
	return &StorefrontError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// IsRetryable checks if an error is retryable
// Retryable errors are transient network or availability issues; a rejected
// credential or a validation failure never is
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrServerError) ||
		errors.Is(err, ErrConnectionFailed)
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLineNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUserError checks if an error was caused by caller input rather than
// infrastructure; these must not trip the circuit breaker or trigger fallback
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrCredentialRejected) ||
		errors.Is(err, ErrUserExists) ||
		IsNotFound(err)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}
