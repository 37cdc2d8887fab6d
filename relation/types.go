package relation

import (
	"encoding/json"
	"strings"
	"time"
)

// FileMeta describes one stored file. It is only used to derive a public URL.
type FileMeta struct {
	ID       int64           `json:"id"`
	Post     int64           `json:"post"`
	Author   int64           `json:"author"`
	Filename string          `json:"filename"`
	Mime     string          `json:"mime"`
	Extra    json.RawMessage `json:"extra,omitempty"`
}

// IsImage reports whether the file is served from the images base.
func (f FileMeta) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.Mime), "image/")
}

// Author is the raw author record as the API inlines it.
type Author struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Thumb   *int64    `json:"thumb,omitempty"`
	Updated time.Time `json:"updated"`
}

// Tag is the raw tag record. Platform is set for platform-scoped tags.
type Tag struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Platform *int64 `json:"platform,omitempty"`
}

// Platform is the raw platform record.
type Platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Collection is the raw collection record.
type Collection struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Source *string `json:"source,omitempty"`
	Thumb  *int64  `json:"thumb,omitempty"`
}

// Bag is the set of related entities inlined next to a primary payload.
// Every field is optional; ids are unique within one slice.
type Bag struct {
	FileMetas   []FileMeta   `json:"file_metas,omitempty"`
	Platforms   []Platform   `json:"platforms,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`
	Authors     []Author     `json:"authors,omitempty"`
	Collections []Collection `json:"collections,omitempty"`
}

// Len returns the total number of related entities.
func (b Bag) Len() int {
	return len(b.FileMetas) + len(b.Platforms) + len(b.Tags) + len(b.Authors) + len(b.Collections)
}

// Merge returns a bag holding the entities of b followed by those of other.
func (b Bag) Merge(other Bag) Bag {
	return Bag{
		FileMetas:   append(append([]FileMeta(nil), b.FileMetas...), other.FileMetas...),
		Platforms:   append(append([]Platform(nil), b.Platforms...), other.Platforms...),
		Tags:        append(append([]Tag(nil), b.Tags...), other.Tags...),
		Authors:     append(append([]Author(nil), b.Authors...), other.Authors...),
		Collections: append(append([]Collection(nil), b.Collections...), other.Collections...),
	}
}

// Payload is a primary value with its relation bag flattened beside it, the
// way the API serializes it.
type Payload[T any] struct {
	Item T
	Bag  Bag
}

// UnmarshalJSON decodes data both as the item and as the bag.
func (p *Payload[T]) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &p.Item); err != nil {
		return err
	}
	return json.Unmarshal(data, &p.Bag)
}
