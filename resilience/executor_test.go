package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestExecutor_Unguarded tests an executor with no options.
func TestExecutor_Unguarded(t *testing.T) {
	calls := 0
	err := NewExecutor().Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Execute() = %v after %d calls", err, calls)
	}
}

// TestExecutor_RetryInsideBreaker tests that a retried sequence counts as
// one breaker outcome.
func TestExecutor_RetryInsideBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2})
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if cb.Metrics().Failures != 1 || cb.State() != StateClosed {
		t.Errorf("breaker = %+v, want one failure and closed", cb.Metrics())
	}
	if e.CircuitBreaker() != cb {
		t.Error("CircuitBreaker() did not return the configured breaker")
	}
}

// TestExecutor_TimeoutPerAttempt tests that each attempt gets its own
// deadline and timeouts are retried.
func TestExecutor_TimeoutPerAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})),
		WithTimeout(20*time.Millisecond),
	)

	calls := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("Execute() = %v after %d calls, want success on the second", err, calls)
	}
}

// TestExecutor_RateLimitedFirst tests that a rate-limited call never reaches
// the breaker.
func TestExecutor_RateLimitedFirst(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.01, Burst: 1})
	e := NewExecutor(WithRateLimiter(rl), WithCircuitBreaker(cb), WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 1})))

	ctx := context.Background()
	if err := e.Execute(ctx, succeed); err != nil {
		t.Fatal(err)
	}
	if err := e.Execute(ctx, succeed); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Execute() error = %v, want ErrRateLimitExceeded", err)
	}
	if cb.State() != StateClosed {
		t.Error("rate limiting tripped the breaker")
	}
}

// TestDo tests the value-returning helper.
func TestDo(t *testing.T) {
	ctx := context.Background()
	got, err := Do(ctx, NewExecutor(), func(context.Context) ([]byte, error) { return []byte("ok"), nil })
	if err != nil || string(got) != "ok" {
		t.Errorf("Do() = (%q, %v)", got, err)
	}

	n, err := Do(ctx, nil, func(context.Context) (int, error) { return 7, nil })
	if err != nil || n != 7 {
		t.Errorf("Do(nil executor) = (%d, %v)", n, err)
	}

	_, err = Do(ctx, NewExecutor(), func(context.Context) (int, error) { return 1, errTransient })
	if !errors.Is(err, errTransient) {
		t.Errorf("Do() error = %v", err)
	}
}
