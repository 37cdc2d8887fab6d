package relation

// Map is a frozen, read-only view over a Bag. Lookups are constant time and a
// missing id yields false. When a slice carries the same id twice the first
// occurrence wins.
type Map struct {
	urls        URLConfig
	fileMetas   map[int64]FileMeta
	platforms   map[int64]Platform
	tags        map[int64]Tag
	authors     map[int64]Author
	collections map[int64]Collection
}

// Build indexes b. The bag is not retained.
func Build(b Bag, urls URLConfig) *Map {
	return &Map{
		urls:        urls,
		fileMetas:   index(b.FileMetas, func(f FileMeta) int64 { return f.ID }),
		platforms:   index(b.Platforms, func(p Platform) int64 { return p.ID }),
		tags:        index(b.Tags, func(t Tag) int64 { return t.ID }),
		authors:     index(b.Authors, func(a Author) int64 { return a.ID }),
		collections: index(b.Collections, func(c Collection) int64 { return c.ID }),
	}
}

func index[T any](items []T, id func(T) int64) map[int64]T {
	m := make(map[int64]T, len(items))
	for _, item := range items {
		k := id(item)
		if _, dup := m[k]; dup {
			continue
		}
		m[k] = item
	}
	return m
}

// FileMeta returns the file metadata with the given id.
func (m *Map) FileMeta(id int64) (FileMeta, bool) {
	f, ok := m.fileMetas[id]
	return f, ok
}

// Platform returns the platform with the given id.
func (m *Map) Platform(id int64) (Platform, bool) {
	p, ok := m.platforms[id]
	return p, ok
}

// Tag returns the tag with the given id.
func (m *Map) Tag(id int64) (Tag, bool) {
	t, ok := m.tags[id]
	return t, ok
}

// Author returns the author with the given id.
func (m *Map) Author(id int64) (Author, bool) {
	a, ok := m.authors[id]
	return a, ok
}

// Collection returns the collection with the given id.
func (m *Map) Collection(id int64) (Collection, bool) {
	c, ok := m.collections[id]
	return c, ok
}

// FileURL resolves a file id to its public URL.
func (m *Map) FileURL(id int64) (string, bool) {
	f, ok := m.fileMetas[id]
	if !ok {
		return "", false
	}
	return m.urls.FileURL(f), true
}

// File bundles a file's metadata with its resolved URL.
type File struct {
	FileMeta
	URL string `json:"url"`
}

// File resolves a file id into metadata plus URL. A nil id yields nil.
func (m *Map) File(id *int64) *File {
	if id == nil {
		return nil
	}
	f, ok := m.fileMetas[*id]
	if !ok {
		return nil
	}
	return &File{FileMeta: f, URL: m.urls.FileURL(f)}
}

// URLConfig returns the URL settings the map derives file URLs with.
func (m *Map) URLConfig() URLConfig {
	return m.urls
}
