package category

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned by ParseKind for unrecognized names.
var ErrUnknownKind = errors.New("category: unknown kind")

// Kind is one of the four entity kinds.
type Kind int

const (
	KindAuthor Kind = iota
	KindTag
	KindPlatform
	KindCollection
)

var kinds = [...]struct {
	name   string
	route  string
	prefix string
}{
	KindAuthor:     {name: "author", route: "authors", prefix: "@"},
	KindTag:        {name: "tag", route: "tags", prefix: "#"},
	KindPlatform:   {name: "platform", route: "platforms", prefix: ":"},
	KindCollection: {name: "collection", route: "collections", prefix: "."},
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindAuthor, KindTag, KindPlatform, KindCollection}
}

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kinds)
}

// String returns the singular name, e.g. "tag".
func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// Route returns the API path segment and cache key prefix, e.g. "tags".
func (k Kind) Route() string {
	if !k.valid() {
		return ""
	}
	return kinds[k].route
}

// Prefix returns the display sigil, e.g. "#".
func (k Kind) Prefix() string {
	if !k.valid() {
		return ""
	}
	return kinds[k].prefix
}

// ItemCache returns the name of the kind's single-item cache.
func (k Kind) ItemCache() string {
	return "fetch." + k.Route()
}

// ListCache returns the name of the kind's list cache.
func (k Kind) ListCache() string {
	return "fetch." + k.Route() + ".list"
}

// ParseKind accepts a singular name, a route or a display prefix,
// case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, k := range kinds {
		if s == k.name || s == k.route || s == k.prefix {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes any form ParseKind accepts.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
