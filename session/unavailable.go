package session

import (
	"context"
	"errors"
)

var (
	errClosed   = errors.New("store closed")
	errDisabled = errors.New("storage disabled")
)

type unavailableStore struct{}

// Unavailable returns a store whose every operation fails. Caches opened on
// it run memory only.
func Unavailable() Store {
	return unavailableStore{}
}

func (unavailableStore) Type() string { return TypeNone }

func (unavailableStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	return nil, false, unavailable(TypeNone, "get", name, errDisabled)
}

func (unavailableStore) Set(_ context.Context, name string, _ []byte) error {
	return unavailable(TypeNone, "set", name, errDisabled)
}

func (unavailableStore) Remove(_ context.Context, name string) error {
	return unavailable(TypeNone, "remove", name, errDisabled)
}

func (unavailableStore) Close() error { return nil }
