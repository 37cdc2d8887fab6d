package category

import (
	"strconv"
	"time"

	"github.com/jonwraymond/archiveview/cache"
	"github.com/jonwraymond/archiveview/relation"
)

// Entity is the surface shared by all four kinds.
type Entity interface {
	// Ref identifies the entity.
	Ref() Ref
	// Display returns the display name and an optional secondary text.
	Display() (name, secondary string)
}

// Ref identifies an entity by kind and id.
type Ref struct {
	Kind Kind
	ID   int64
}

// Key returns the item cache key "{kind}-{id}".
func (r Ref) Key() string {
	return cache.ItemKey(r.Kind.Route(), r.ID)
}

// String returns the prefixed form, e.g. "#12".
func (r Ref) String() string {
	return r.Kind.Prefix() + strconv.FormatInt(r.ID, 10)
}

// Author is an author with its thumbnail resolved.
type Author struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name"`
	Updated time.Time      `json:"updated"`
	Thumb   *relation.File `json:"thumb,omitempty"`
}

func newAuthor(a relation.Author, m *relation.Map) Author {
	return Author{ID: a.ID, Name: a.Name, Updated: a.Updated, Thumb: m.File(a.Thumb)}
}

// Ref returns the author's reference.
func (a Author) Ref() Ref { return Ref{Kind: KindAuthor, ID: a.ID} }

// Display returns the author name. Authors have no secondary label.
func (a Author) Display() (string, string) { return a.Name, "" }

// Tag is a tag with its platform resolved. Tags without a platform are
// global.
type Tag struct {
	ID       int64              `json:"id"`
	Name     string             `json:"name"`
	Platform *relation.Platform `json:"platform,omitempty"`
}

func newTag(t relation.Tag, m *relation.Map) Tag {
	tag := Tag{ID: t.ID, Name: t.Name}
	if t.Platform != nil {
		if p, ok := m.Platform(*t.Platform); ok {
			tag.Platform = &p
		}
	}
	return tag
}

// Ref returns the tag's reference.
func (t Tag) Ref() Ref { return Ref{Kind: KindTag, ID: t.ID} }

// Display returns the tag name and its platform's name.
func (t Tag) Display() (string, string) {
	if t.Platform == nil {
		return t.Name, ""
	}
	return t.Name, t.Platform.Name
}

// Platform is a source platform.
type Platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newPlatform(p relation.Platform, _ *relation.Map) Platform {
	return Platform{ID: p.ID, Name: p.Name}
}

// Ref returns the platform's reference.
func (p Platform) Ref() Ref { return Ref{Kind: KindPlatform, ID: p.ID} }

// Display returns the platform name. Platforms have no secondary label.
func (p Platform) Display() (string, string) { return p.Name, "" }

// Collection is a collection with its thumbnail resolved.
type Collection struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Source string         `json:"source,omitempty"`
	Thumb  *relation.File `json:"thumb,omitempty"`
}

func newCollection(c relation.Collection, m *relation.Map) Collection {
	col := Collection{ID: c.ID, Name: c.Name, Thumb: m.File(c.Thumb)}
	if c.Source != nil {
		col.Source = *c.Source
	}
	return col
}

// Ref returns the collection's reference.
func (c Collection) Ref() Ref { return Ref{Kind: KindCollection, ID: c.ID} }

// Display returns the collection name and its source.
func (c Collection) Display() (string, string) { return c.Name, c.Source }

var (
	_ Entity = Author{}
	_ Entity = Tag{}
	_ Entity = Platform{}
	_ Entity = Collection{}
)
