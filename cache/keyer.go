package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ItemKey returns the key of a single-item fetch: "{kind}-{id}".
func ItemKey(kind string, id int64) string {
	return kind + "-" + strconv.FormatInt(id, 10)
}

// ListKey returns the key of a list fetch: "{kind}-{search}-{page}-{limit}".
// Page and limit must already be normalized to non-negative integers; the
// two trailing fields then always parse back unambiguously.
//
// Search text that would make the key invalid (line breaks, or a key over
// MaxKeyLength) is replaced by its SHA-256, as is text that already starts
// with the hash marker, so a raw search never equals a hashed one.
func ListKey(kind, search string, page, limit int) string {
	tail := "-" + strconv.Itoa(page) + "-" + strconv.Itoa(limit)
	if strings.ContainsAny(search, "\n\r") ||
		strings.HasPrefix(search, hashedSearchPrefix) ||
		len(kind)+1+len(search)+len(tail) > MaxKeyLength {
		sum := sha256.Sum256([]byte(search))
		search = hashedSearchPrefix + hex.EncodeToString(sum[:])
	}
	return kind + "-" + search + tail
}

const hashedSearchPrefix = "#sha256:"

// Keyer generates deterministic cache keys from structured request input.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from a resource kind and request input.
	Key(kind string, input any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys. It is used for requests
// whose parameters are too open-ended to spell out in the key, such as post
// searches with several id filters.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: <kind>-<hash>
// where hash is the first 16 hex characters of SHA-256(JSON(input)).
// encoding/json writes map keys in sorted order, so maps hash stably.
func (k *DefaultKeyer) Key(kind string, input any) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to encode key input: %w", err)
	}
	sum := sha256.Sum256(data)
	return kind + "-" + hex.EncodeToString(sum[:8]), nil
}

var _ Keyer = (*DefaultKeyer)(nil)
