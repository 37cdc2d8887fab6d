package resilience

import (
	"context"
	"time"
)

// Executor composes the guards around one request.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor. With no options it runs
// the operation once, unguarded.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds a concurrency limit to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(d)
	}
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// guard is implemented by every layer an Executor stacks.
type guard interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// layers lists the configured guards from innermost to outermost.
func (e *Executor) layers() []guard {
	var gs []guard
	if e.timeout != nil {
		gs = append(gs, e.timeout)
	}
	if e.retry != nil {
		gs = append(gs, e.retry)
	}
	if e.circuitBreaker != nil {
		gs = append(gs, e.circuitBreaker)
	}
	if e.bulkhead != nil {
		gs = append(gs, e.bulkhead)
	}
	if e.rateLimiter != nil {
		gs = append(gs, e.rateLimiter)
	}
	return gs
}

// Execute runs op through the configured guards. From outside in:
// rate limiter, bulkhead, circuit breaker, retry, timeout. The breaker sees
// the outcome of the whole retry sequence, and each attempt gets its own
// timeout.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op
	for _, g := range e.layers() {
		inner := run
		run = func(ctx context.Context) error {
			return g.Execute(ctx, inner)
		}
	}
	return run(ctx)
}

// Do runs op through e and returns its value. A nil executor runs op once.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	if e == nil {
		return op(ctx)
	}
	var out T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
