package resilience

import (
	"context"
	"errors"
	"time"
)

// Timeout bounds each attempt. The operation must honor its context.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a timeout wrapper. A non-positive duration uses 30s.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = 30 * time.Second
	}
	return &Timeout{d: d}
}

// Duration returns the per-attempt limit.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Execute runs op with a deadline. When the deadline, and not the parent
// context, ends the attempt, the error becomes ErrTimeout.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}
