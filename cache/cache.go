package cache

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache      = errors.New("cache: cache is nil")
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrNilFetcher    = errors.New("cache: fetcher is nil")
	ErrInvalidName   = errors.New("cache: name is invalid")
	ErrDuplicateName = errors.New("cache: name already registered")
	ErrUnknownName   = errors.New("cache: name not registered")
	ErrCorruptRecord = errors.New("cache: persisted record is corrupt")
)

// Storage is the session-scoped record store a FetchCache persists into.
// One record per cache name holds the whole settled snapshot.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Get returns (nil, false, nil) when no record exists.
// - Any error means the storage is unavailable; callers degrade to memory only.
type Storage interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Set(ctx context.Context, name string, data []byte) error
	Remove(ctx context.Context, name string) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// ValidateName checks a cache name. Names are dotted identifiers such as
// "fetch.tag" or "fetch.tag.list".
func ValidateName(name string) error {
	if name == "" || strings.TrimSpace(name) != name {
		return ErrInvalidName
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_':
		default:
			return ErrInvalidName
		}
	}
	return nil
}
