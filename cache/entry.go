package cache

// State is the lifecycle state of one cache key.
type State int

const (
	// StateAbsent means the key has never been requested or was evicted.
	StateAbsent State = iota
	// StatePending means a fetch is in flight and no data is available yet.
	StatePending
	// StateSettled means the fetch succeeded and the value is cached.
	StateSettled
	// StateFailed means the last fetch failed. The next Resolve retries.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePending:
		return "pending"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Entry is a point-in-time view of one key.
type Entry[V any] struct {
	State State
	Value V     // set when State is StateSettled
	Err   error // set when State is StateFailed
}
