package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Managed is the type-independent surface of a FetchCache that a Registry
// operates on.
type Managed interface {
	Name() string
	Clear(ctx context.Context) error
	Stats() Stats
}

// Registry owns the set of cache names in one session. No two caches may
// share a name, because the name is also the storage record they persist to.
// Options passed to NewRegistry are applied to every cache opened through it,
// before the per-cache options.
type Registry struct {
	defaults []Option

	mu     sync.Mutex
	caches map[string]Managed
}

// NewRegistry creates an empty registry.
func NewRegistry(defaults ...Option) *Registry {
	return &Registry{
		defaults: defaults,
		caches:   make(map[string]Managed),
	}
}

// Open creates a FetchCache named name, restores it and registers it.
// Generic constructors cannot be methods, so Open takes the registry as an
// argument.
func Open[V any](ctx context.Context, r *Registry, name string, opts ...Option) (*FetchCache[V], error) {
	if r == nil {
		return nil, ErrNilCache
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.caches[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	all := append(slices.Clone(r.defaults), opts...)
	c, err := NewFetchCache[V](ctx, name, all...)
	if err != nil {
		return nil, err
	}
	r.caches[name] = c
	return c, nil
}

// Register adds an existing cache.
func (r *Registry) Register(c Managed) error {
	if c == nil {
		return ErrNilCache
	}
	name := c.Name()
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("%w: %q", err, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caches[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.caches[name] = c
	return nil
}

// Unregister forgets name. Its persisted record is left in place.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caches, name)
}

// Lookup returns the cache registered under name.
func (r *Registry) Lookup(name string) (Managed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caches[name]
	return c, ok
}

// Clear clears the named cache and its persisted record.
func (r *Registry) Clear(ctx context.Context, name string) error {
	c, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return c.Clear(ctx)
}

// ClearAll clears every registered cache, returning all errors joined.
func (r *Registry) ClearAll(ctx context.Context) error {
	var errs []error
	for _, name := range r.Names() {
		if err := r.Clear(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stats returns the stats of every cache, sorted by name.
func (r *Registry) Stats() []Stats {
	names := r.Names()
	out := make([]Stats, 0, len(names))
	for _, name := range names {
		if c, ok := r.Lookup(name); ok {
			out = append(out, c.Stats())
		}
	}
	return out
}

var _ Managed = (*FetchCache[[]byte])(nil)
