package cache

// DefaultCapacity bounds a fetch cache when no capacity is configured.
const DefaultCapacity = 128

// Policy configures a FetchCache.
type Policy struct {
	// Capacity is the maximum number of settled entries kept in memory.
	// Zero keeps nothing: every settled value is evicted immediately, although
	// concurrent callers still share one fetch.
	Capacity int

	// Persist writes the settled snapshot to session storage after each change
	// and restores it when the cache is opened.
	Persist bool
}

// DefaultPolicy returns the default policy.
// Capacity: 128, Persist: true
func DefaultPolicy() Policy {
	return Policy{
		Capacity: DefaultCapacity,
		Persist:  true,
	}
}

// MemoryOnlyPolicy returns a policy that never touches session storage.
func MemoryOnlyPolicy() Policy {
	return Policy{
		Capacity: DefaultCapacity,
		Persist:  false,
	}
}

// WithCapacity returns a copy of p with the given capacity.
func (p Policy) WithCapacity(n int) Policy {
	p.Capacity = n
	return p
}

// EffectiveCapacity returns the capacity clamped to be non-negative.
func (p Policy) EffectiveCapacity() int {
	if p.Capacity < 0 {
		return 0
	}
	return p.Capacity
}

// ShouldPersist reports whether settled entries are written to storage.
func (p Policy) ShouldPersist() bool {
	return p.Persist && p.EffectiveCapacity() > 0
}
