package relation

import (
	"encoding/json"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Memo rebuilds a Map only when the payload it is built from changes.
// Payload identity is the xxhash of the raw bytes. It is safe for concurrent use.
type Memo struct {
	urls URLConfig

	mu   sync.Mutex
	sum  uint64
	have bool
	m    *Map
}

// NewMemo returns a Memo that builds maps with urls.
func NewMemo(urls URLConfig) *Memo {
	return &Memo{urls: urls}
}

// Map returns the relation map for raw, decoding the bag only when raw differs
// from the previous call.
func (m *Memo) Map(raw []byte) (*Map, error) {
	sum := xxhash.Sum64(raw)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.have && m.sum == sum {
		return m.m, nil
	}

	var b Bag
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
	}
	m.m = Build(b, m.urls)
	m.sum = sum
	m.have = true
	return m.m, nil
}

// Identity returns the payload identity used as the memo key.
func Identity(raw []byte) uint64 {
	return xxhash.Sum64(raw)
}
