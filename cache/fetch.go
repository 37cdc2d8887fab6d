package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/archiveview/observe"
)

// Fetcher loads the value for key from the network. The context it receives
// is detached from the caller's cancellation.
type Fetcher[V any] func(ctx context.Context, key string) (V, error)

// Option configures a FetchCache.
type Option func(*options)

type options struct {
	policy  Policy
	storage Storage
	logger  observe.Logger
	metrics observe.Metrics
}

// WithPolicy sets capacity and persistence.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithCapacity overrides only the capacity of the policy.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.policy.Capacity = n
	}
}

// WithStorage sets the session storage settled entries persist into.
func WithStorage(s Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the cache event recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Stats is a point-in-time summary of one cache.
type Stats struct {
	Name       string `json:"name"`
	Len        int    `json:"len"`
	Cap        int    `json:"cap"`
	Pending    int    `json:"pending"`
	Failed     int    `json:"failed"`
	Persistent bool   `json:"persistent"`
}

// FetchCache memoizes fetch results per key.
//
// Contract:
//   - Concurrency: safe for concurrent use. For one key at most one fetch is in
//     flight; every caller that arrives before it settles shares its result.
//   - Errors: failures are returned to every waiting caller and never cached,
//     so the next Resolve fetches again.
//   - Persistence: after each change to the settled set the snapshot is written
//     to Storage under Name(). A storage error disables persistence for the
//     rest of the cache's life; in-memory caching continues.
type FetchCache[V any] struct {
	name    string
	policy  Policy
	storage Storage
	logger  observe.Logger
	metrics observe.Metrics

	store  *LRU[string, V]
	failed *LRU[string, error]
	group  singleflight.Group

	mu sync.Mutex
	// pending maps an in-flight key to the generation that started it.
	pending map[string]uint64
	gen     uint64

	persistMu  sync.Mutex
	persistOff atomic.Bool
}

// NewFetchCache creates a cache named name and, when the policy persists,
// restores its snapshot from storage. Restore failures are logged and leave
// the cache empty.
func NewFetchCache[V any](ctx context.Context, name string, opts ...Option) (*FetchCache[V], error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %q", err, name)
	}

	o := options{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = observe.NopLogger()
	}
	if o.metrics == nil {
		o.metrics = observe.NopMetrics()
	}

	capacity := o.policy.EffectiveCapacity()
	c := &FetchCache[V]{
		name:    name,
		policy:  o.policy,
		storage: o.storage,
		logger:  o.logger.With(observe.F("cache", name)),
		metrics: o.metrics,
		store:   NewLRU[string, V](capacity),
		failed:  NewLRU[string, error](capacity),
		pending: make(map[string]uint64),
	}
	if !c.persistent() {
		c.persistOff.Store(true)
		return c, nil
	}

	c.restore(ctx)
	return c, nil
}

func (c *FetchCache[V]) persistent() bool {
	return c.storage != nil && c.policy.ShouldPersist()
}

func (c *FetchCache[V]) restore(ctx context.Context) {
	data, ok, err := c.storage.Get(ctx, c.name)
	if err != nil {
		c.disablePersistence(ctx, "restore", err)
		return
	}
	if !ok {
		return
	}

	var pairs []Pair[string, V]
	if err := json.Unmarshal(data, &pairs); err != nil {
		c.logger.Warn(ctx, "discarding corrupt persisted snapshot", observe.F("error", err))
		if err := c.storage.Remove(ctx, c.name); err != nil {
			c.disablePersistence(ctx, "remove", err)
		}
		return
	}

	c.store = NewLRUFrom(c.policy.EffectiveCapacity(), pairs)
	c.metrics.RecordCacheEvent(ctx, c.name, observe.EventRestored, int64(c.store.Len()))
	c.logger.Debug(ctx, "restored persisted snapshot", observe.F("entries", c.store.Len()))
}

// Name returns the cache name, which is also its storage record name.
func (c *FetchCache[V]) Name() string {
	return c.name
}

// Resolve returns the settled value for key, joining an in-flight fetch or
// starting one with fetch on a miss. If ctx ends first, Resolve returns
// ctx.Err() but the fetch keeps running and still populates the cache.
func (c *FetchCache[V]) Resolve(ctx context.Context, key string, fetch Fetcher[V]) (V, error) {
	var zero V
	if c == nil {
		return zero, ErrNilCache
	}
	if fetch == nil {
		return zero, ErrNilFetcher
	}
	if err := ValidateKey(key); err != nil {
		return zero, err
	}

	if v, ok := c.store.Get(key); ok {
		c.metrics.RecordCacheEvent(ctx, c.name, observe.EventHit, 1)
		return v, nil
	}

	if c.isPending(key) {
		c.metrics.RecordCacheEvent(ctx, c.name, observe.EventCoalesced, 1)
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), key, fetch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		// A nil interface value fails the assertion and yields zero, which is
		// the same value.
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// fill runs inside the single flight for key.
func (c *FetchCache[V]) fill(ctx context.Context, key string, fetch Fetcher[V]) (V, error) {
	// A flight for key may have settled between the caller's miss and now.
	if v, ok := c.store.Peek(key); ok {
		return v, nil
	}

	c.mu.Lock()
	gen := c.gen
	c.pending[key] = gen
	c.mu.Unlock()

	c.metrics.RecordCacheEvent(ctx, c.name, observe.EventMiss, 1)
	v, err := fetch(ctx, key)

	c.mu.Lock()
	// After a Clear a newer flight for key may own the marker.
	if c.pending[key] == gen {
		delete(c.pending, key)
	}
	cleared := gen != c.gen
	c.mu.Unlock()

	if err != nil {
		if !cleared {
			c.failed.Set(key, err)
		}
		return v, err
	}

	// Waiters still get the value, but a Clear issued mid-flight wins.
	if cleared {
		return v, nil
	}
	c.failed.Delete(key)
	c.settle(ctx, Pair[string, V]{Key: key, Value: v})
	return v, nil
}

func (c *FetchCache[V]) isPending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

func (c *FetchCache[V]) settle(ctx context.Context, pairs ...Pair[string, V]) {
	var evicted int64
	for _, p := range pairs {
		if c.store.Set(p.Key, p.Value) {
			evicted++
		}
	}
	c.metrics.RecordCacheEvent(ctx, c.name, observe.EventEvicted, evicted)
	c.persist(ctx)
}

// Get returns the settled value for key, marking it most recently used.
func (c *FetchCache[V]) Get(key string) (V, bool) {
	return c.store.Get(key)
}

// Set stores value under key as settled, bypassing the fetcher.
func (c *FetchCache[V]) Set(ctx context.Context, key string, value V) error {
	return c.SetMany(ctx, []Pair[string, V]{{Key: key, Value: value}})
}

// SetMany stores several settled values and persists once. Later pairs end
// up more recently used.
func (c *FetchCache[V]) SetMany(ctx context.Context, pairs []Pair[string, V]) error {
	for _, p := range pairs {
		if err := ValidateKey(p.Key); err != nil {
			return fmt.Errorf("%w: %q", err, p.Key)
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	for _, p := range pairs {
		c.failed.Delete(p.Key)
	}
	c.settle(ctx, pairs...)
	return nil
}

// Delete drops key and persists the change.
func (c *FetchCache[V]) Delete(ctx context.Context, key string) {
	c.failed.Delete(key)
	if c.store.Delete(key) {
		c.persist(ctx)
	}
}

// Entry reports the current state of key without changing its recency.
func (c *FetchCache[V]) Entry(key string) Entry[V] {
	if v, ok := c.store.Peek(key); ok {
		return Entry[V]{State: StateSettled, Value: v}
	}
	if c.isPending(key) {
		return Entry[V]{State: StatePending}
	}
	if err, ok := c.failed.Peek(key); ok {
		return Entry[V]{State: StateFailed, Err: err}
	}
	return Entry[V]{State: StateAbsent}
}

// Snapshot returns the settled entries, least recently used first.
func (c *FetchCache[V]) Snapshot() []Pair[string, V] {
	return c.store.Snapshot()
}

// Len returns the number of settled entries.
func (c *FetchCache[V]) Len() int {
	return c.store.Len()
}

// Stats returns a summary of the cache.
func (c *FetchCache[V]) Stats() Stats {
	c.mu.Lock()
	pending := len(c.pending)
	c.mu.Unlock()
	return Stats{
		Name:       c.name,
		Len:        c.store.Len(),
		Cap:        c.store.Cap(),
		Pending:    pending,
		Failed:     c.failed.Len(),
		Persistent: !c.persistOff.Load(),
	}
}

// Clear drops every entry and removes the persisted record. Fetches already
// in flight still answer their waiters but no longer populate the cache.
func (c *FetchCache[V]) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	for key := range c.pending {
		c.group.Forget(key)
	}
	c.mu.Unlock()

	c.store.Clear()
	c.failed.Clear()
	c.metrics.RecordCacheEvent(ctx, c.name, observe.EventCleared, 1)

	if c.storage == nil || !c.policy.Persist {
		return nil
	}
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	if err := c.storage.Remove(ctx, c.name); err != nil {
		c.disablePersistence(ctx, "remove", err)
		return fmt.Errorf("cache: clear %s: %w", c.name, err)
	}
	return nil
}

// persist writes the current snapshot. The snapshot is taken while holding
// persistMu so concurrent persists for this name always end with the latest
// state written last.
func (c *FetchCache[V]) persist(ctx context.Context) {
	if c.persistOff.Load() {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	snapshot := c.store.Snapshot()
	if snapshot == nil {
		snapshot = []Pair[string, V]{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Error(ctx, "failed to encode snapshot", observe.F("error", err))
		return
	}
	if err := c.storage.Set(ctx, c.name, data); err != nil {
		c.disablePersistence(ctx, "persist", err)
		return
	}
	c.metrics.RecordCacheEvent(ctx, c.name, observe.EventPersisted, 1)
}

func (c *FetchCache[V]) disablePersistence(ctx context.Context, op string, err error) {
	c.metrics.RecordCacheEvent(ctx, c.name, observe.EventPersistFailed, 1)
	if c.persistOff.CompareAndSwap(false, true) {
		c.logger.Warn(ctx, "session storage unavailable, caching in memory only",
			observe.F("op", op), observe.F("error", err))
	}
}
