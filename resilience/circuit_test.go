package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/archiveview/health"
)

func fail(context.Context) error    { return errTransient }
func succeed(context.Context) error { return nil }

// newTestBreaker returns a breaker on a controllable clock.
func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	now := time.Unix(1700000000, 0)
	cb := NewCircuitBreaker(cfg)
	cb.now = func() time.Time { return now }
	return cb, &now
}

// TestCircuitBreaker_Defaults tests the defaults.
func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	if cb.config.MaxFailures != 5 || cb.config.ResetTimeout != 30*time.Second || cb.config.HalfOpenMaxRequests != 1 {
		t.Errorf("config = %+v", cb.config)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

// TestCircuitBreaker_Lifecycle tests closed, open, half-open and back.
func TestCircuitBreaker_Lifecycle(t *testing.T) {
	var transitions []string
	cb, now := newTestBreaker(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	if cb.State() != StateClosed {
		t.Fatal("opened after one failure")
	}
	_ = cb.Execute(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatal("still closed after MaxFailures")
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("open circuit: err = %v, called = %v", err, called)
	}

	*now = now.Add(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open", cb.State())
	}
	_ = cb.Execute(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatal("failed probe did not reopen")
	}

	*now = now.Add(time.Minute)
	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v after successful probe, want closed", cb.State())
	}

	want := []string{"closed>open", "open>half-open", "half-open>open", "open>half-open", "half-open>closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

// TestCircuitBreaker_IgnoresPermanentErrors tests that non-transient
// failures never open the circuit.
func TestCircuitBreaker_IgnoresPermanentErrors(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1})
	errMalformed := errors.New("malformed body")
	for i := 0; i < 5; i++ {
		if err := cb.Execute(context.Background(), func(context.Context) error { return errMalformed }); err != errMalformed {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

// TestCircuitBreaker_SuccessResetsFailures tests consecutive counting.
func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 2})
	ctx := context.Background()
	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, succeed)
	_ = cb.Execute(ctx, fail)
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
	if m := cb.Metrics(); m.Failures != 1 {
		t.Errorf("Failures = %d, want 1", m.Failures)
	}
}

// TestCircuitBreaker_Reset tests manual reset.
func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1})
	_ = cb.Execute(context.Background(), fail)
	cb.Reset()
	if cb.State() != StateClosed || cb.Metrics().Failures != 0 {
		t.Errorf("after Reset: %+v", cb.Metrics())
	}
}

// TestCircuitBreaker_Checker tests the health view.
func TestCircuitBreaker_Checker(t *testing.T) {
	cb, now := newTestBreaker(CircuitBreakerConfig{Name: "archive", MaxFailures: 1, ResetTimeout: time.Second})
	c := cb.Checker()
	if c.Name() != "archive.circuit" {
		t.Errorf("Name() = %q", c.Name())
	}
	ctx := context.Background()

	if r := c.Check(ctx); r.Status != health.StatusHealthy {
		t.Errorf("closed: %v", r.Status)
	}
	_ = cb.Execute(ctx, fail)
	if r := c.Check(ctx); r.Status != health.StatusUnhealthy || !errors.Is(r.Error, ErrCircuitOpen) {
		t.Errorf("open: %v (%v)", r.Status, r.Error)
	}
	*now = now.Add(time.Second)
	if r := c.Check(ctx); r.Status != health.StatusDegraded {
		t.Errorf("half-open: %v", r.Status)
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(9): "unknown"} {
		if got := s.String(); got != want {
			t.Errorf("State(%d) = %q, want %q", s, got, want)
		}
	}
}
