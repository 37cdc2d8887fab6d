package session

import (
	"context"
	"sync"
)

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
	closed  bool
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

// Type returns "memory".
func (m *Memory) Type() string { return TypeMemory }

// Get returns a copy of the record.
func (m *Memory) Get(_ context.Context, name string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, unavailable(TypeMemory, "get", name, errClosed)
	}
	data, ok := m.records[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data.
func (m *Memory) Set(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return unavailable(TypeMemory, "set", name, errClosed)
	}
	m.records[name] = append([]byte(nil), data...)
	return nil
}

// Remove deletes the record. Removing a missing record is not an error.
func (m *Memory) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return unavailable(TypeMemory, "remove", name, errClosed)
	}
	delete(m.records, name)
	return nil
}

// Close drops every record. Later calls fail with ErrUnavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}
