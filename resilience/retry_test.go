package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastfoodmaniya/storefront/core"
)

func fastRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		if calls < 3 {
			return core.ErrNetworkUnavailable
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry() failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return core.ErrNetworkUnavailable
	})

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, core.ErrMaxRetriesExceeded) {
		t.Errorf("error = %v, want ErrMaxRetriesExceeded", err)
	}
	// The original kind must survive for upstream dispatch
	if !errors.Is(err, core.ErrNetworkUnavailable) {
		t.Errorf("error = %v, want to still match ErrNetworkUnavailable", err)
	}
}

func TestRetry_NonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(5), func() error {
		calls++
		return core.ErrCredentialRejected
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1 (rejections must not be retried)", calls)
	}
	if !errors.Is(err, core.ErrCredentialRejected) {
		t.Errorf("error = %v, want ErrCredentialRejected", err)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(3), func() error {
		return core.ErrNetworkUnavailable
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, err := NewCircuitBreaker(&CircuitBreakerConfig{
		Name:             "remote-api",
		FailureThreshold: 3,
		SleepWindow:      time.Hour,
		HalfOpenRequests: 1,
	})
	if err != nil {
		t.Fatalf("NewCircuitBreaker() failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if !cb.CanExecute() {
			t.Fatalf("circuit opened early at failure %d", i)
		}
		cb.RecordResult(core.ErrNetworkUnavailable)
	}

	if cb.GetState() != StateOpen {
		t.Errorf("state = %v, want open", cb.GetState())
	}
	if cb.CanExecute() {
		t.Error("open circuit must reject execution")
	}
}

func TestCircuitBreaker_UserErrorsDoNotCount(t *testing.T) {
	cb, _ := NewCircuitBreaker(&CircuitBreakerConfig{
		Name:             "remote-api",
		FailureThreshold: 2,
		SleepWindow:      time.Hour,
		HalfOpenRequests: 1,
	})

	for i := 0; i < 10; i++ {
		cb.RecordResult(core.ErrCredentialRejected)
	}

	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed (user errors must not trip the breaker)", cb.GetState())
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb, _ := NewCircuitBreaker(&CircuitBreakerConfig{
		Name:             "remote-api",
		FailureThreshold: 1,
		SleepWindow:      time.Millisecond,
		HalfOpenRequests: 1,
	})

	cb.RecordResult(core.ErrNetworkUnavailable)
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	time.Sleep(5 * time.Millisecond)

	if !cb.CanExecute() {
		t.Fatal("expected half-open probe to be admitted after sleep window")
	}
	cb.RecordResult(nil)

	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed after successful probe", cb.GetState())
	}
}

func TestRetryWithCircuitBreaker_OpenCircuitShortCircuits(t *testing.T) {
	cb, _ := NewCircuitBreaker(&CircuitBreakerConfig{
		Name:             "remote-api",
		FailureThreshold: 1,
		SleepWindow:      time.Hour,
		HalfOpenRequests: 1,
	})
	cb.RecordResult(core.ErrNetworkUnavailable)

	calls := 0
	err := RetryWithCircuitBreaker(context.Background(), fastRetryConfig(3), cb, func() error {
		calls++
		return nil
	})

	if calls != 0 {
		t.Errorf("calls = %d, want 0 (open circuit must short-circuit)", calls)
	}
	if !errors.Is(err, core.ErrCircuitBreakerOpen) {
		t.Errorf("error = %v, want ErrCircuitBreakerOpen", err)
	}
}
