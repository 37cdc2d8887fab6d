package session

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/archiveview/health"
)

const probeName = "session.probe"

// Checker probes a store with a write, read and remove round trip.
type Checker struct {
	store Store
}

// NewChecker creates a health checker for s.
func NewChecker(s Store) *Checker {
	return &Checker{store: s}
}

// Name returns "session".
func (c *Checker) Name() string {
	return "session"
}

// Check performs the probe. A failing store is degraded rather than
// unhealthy, because caches keep working in memory without it.
func (c *Checker) Check(ctx context.Context) health.Result {
	start := time.Now()
	details := map[string]any{"type": c.store.Type()}

	if err := c.probe(ctx); err != nil {
		r := health.Degraded("session storage unavailable, caching in memory only")
		r.Error = err
		return r.WithDetails(details).WithDuration(time.Since(start))
	}
	return health.Healthy("session storage ok").WithDetails(details).WithDuration(time.Since(start))
}

func (c *Checker) probe(ctx context.Context) error {
	want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	if err := c.store.Set(ctx, probeName, want); err != nil {
		return err
	}
	got, ok, err := c.store.Get(ctx, probeName)
	if err != nil {
		return err
	}
	if !ok || !bytes.Equal(got, want) {
		return fmt.Errorf("%w: probe record did not round trip", ErrUnavailable)
	}
	return c.store.Remove(ctx, probeName)
}

var _ health.Checker = (*Checker)(nil)
