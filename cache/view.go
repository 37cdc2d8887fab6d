package cache

import (
	"context"
	"sync"
)

// View follows a changing key, such as the page a reader is looking at.
// While the newest key is still loading, Current keeps returning the value
// that settled for an earlier key. Results for superseded keys still land in
// the cache but are never shown.
type View[V any] struct {
	cache *FetchCache[V]
	fetch Fetcher[V]

	mu       sync.Mutex
	seq      uint64
	key      string
	done     chan struct{}
	err      error
	value    V
	valueKey string
	has      bool
}

// NewView creates a view that resolves keys through c with fetch.
func NewView[V any](c *FetchCache[V], fetch Fetcher[V]) *View[V] {
	return &View[V]{cache: c, fetch: fetch}
}

// Load makes key the current key and starts resolving it in the background.
// A key that is already settled is shown immediately.
func (v *View[V]) Load(ctx context.Context, key string) {
	done := make(chan struct{})

	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.key = key
	v.err = nil
	v.done = done
	if val, ok := v.cache.Get(key); ok {
		v.show(key, val)
		v.mu.Unlock()
		close(done)
		return
	}
	v.mu.Unlock()

	go func() {
		defer close(done)
		val, err := v.cache.Resolve(context.WithoutCancel(ctx), key, v.fetch)

		v.mu.Lock()
		defer v.mu.Unlock()
		if seq != v.seq {
			return
		}
		if err != nil {
			v.err = err
			return
		}
		v.show(key, val)
	}()
}

func (v *View[V]) show(key string, val V) {
	v.value = val
	v.valueKey = key
	v.has = true
}

// Current returns the last shown value and the key it belongs to. ok is false
// until some key has settled.
func (v *View[V]) Current() (value V, key string, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.valueKey, v.has
}

// Key returns the most recently requested key.
func (v *View[V]) Key() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key
}

// Stale reports whether the shown value belongs to an earlier key than the
// one most recently requested.
func (v *View[V]) Stale() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key != "" && (!v.has || v.valueKey != v.key)
}

// Err returns the failure of the most recently requested key, if any.
func (v *View[V]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Wait blocks until the most recently requested key settles or fails and
// returns its result. If Load is called again meanwhile, Wait follows the
// newer key.
func (v *View[V]) Wait(ctx context.Context) (V, error) {
	var zero V
	for {
		v.mu.Lock()
		seq, done := v.seq, v.done
		v.mu.Unlock()
		if done == nil {
			return zero, nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		v.mu.Lock()
		if seq != v.seq {
			v.mu.Unlock()
			continue
		}
		val, err := v.value, v.err
		v.mu.Unlock()
		if err != nil {
			return zero, err
		}
		return val, nil
	}
}
