package cache

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Pair is one entry of an LRU snapshot. It encodes as the two-element JSON
// array [key, value].
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// MarshalJSON encodes the pair as [key, value].
func (p Pair[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Value})
}

// UnmarshalJSON decodes a [key, value] array.
func (p *Pair[K, V]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: pair has %d elements, want 2", ErrCorruptRecord, len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Value)
}

// LRU is a bounded map that evicts the least recently used entry once it
// holds more than its capacity. Get and Set both count as use.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Len() <= Cap() at all times. With capacity 0 every Set evicts its own entry.
// - Snapshot lists entries least recent first; replaying it through
//   NewLRUFrom reproduces the same order.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	inner    *simplelru.LRU[K, V] // nil when capacity is 0
}

// NewLRU creates an empty store. Negative capacities are treated as 0.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	c := &LRU[K, V]{capacity: capacity}
	if capacity > 0 {
		// NewLRU only fails for non-positive sizes.
		c.inner, _ = simplelru.NewLRU[K, V](capacity, nil)
	}
	return c
}

// NewLRUFrom creates a store and replays entries in order, so the last entry
// ends up most recently used. Entries beyond capacity evict the earliest ones.
func NewLRUFrom[K comparable, V any](capacity int, entries []Pair[K, V]) *LRU[K, V] {
	c := NewLRU[K, V](capacity)
	for _, e := range entries {
		c.Set(e.Key, e.Value)
	}
	return c
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		var zero V
		return zero, false
	}
	return c.inner.Get(key)
}

// Peek returns the value for key without changing its recency.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		var zero V
		return zero, false
	}
	return c.inner.Peek(key)
}

// Set inserts or updates key, marks it most recently used and reports
// whether an entry was evicted to make room.
func (c *LRU[K, V]) Set(key K, value V) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		return true
	}
	return c.inner.Add(key, value)
}

// Delete removes key and reports whether it was present.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		return false
	}
	return c.inner.Remove(key)
}

// Clear removes every entry.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner != nil {
		c.inner.Purge()
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		return 0
	}
	return c.inner.Len()
}

// Cap returns the capacity fixed at construction.
func (c *LRU[K, V]) Cap() int {
	return c.capacity
}

// Snapshot returns all entries, least recently used first.
func (c *LRU[K, V]) Snapshot() []Pair[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		return nil
	}
	keys := c.inner.Keys()
	out := make([]Pair[K, V], 0, len(keys))
	for _, k := range keys {
		v, _ := c.inner.Peek(k)
		out = append(out, Pair[K, V]{Key: k, Value: v})
	}
	return out
}
