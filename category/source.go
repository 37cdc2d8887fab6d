package category

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/jonwraymond/archiveview/archive"
	"github.com/jonwraymond/archiveview/cache"
	"github.com/jonwraymond/archiveview/query"
	"github.com/jonwraymond/archiveview/relation"
)

// Fetcher performs API requests. *archive.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req archive.Request) ([]byte, error)
}

// List is one page of entities.
type List[E any] struct {
	Items []E `json:"items"`
	Total int `json:"total"`
}

// decoder builds one entity from its raw record and the relations of the
// response it came in.
type decoder[E any] func(raw []byte, m *relation.Map) (E, error)

func decodeWith[R, E any](build func(R, *relation.Map) E) decoder[E] {
	return func(raw []byte, m *relation.Map) (E, error) {
		var r R
		if err := archive.Decode(raw, &r); err != nil {
			var zero E
			return zero, err
		}
		return build(r, m), nil
	}
}

// Source fetches one kind by id and by page.
//
// Contract:
//   - Concurrency: safe for concurrent use; at most one request per key is
//     in flight.
//   - Absent results are nil with a nil error and are cached.
type Source[E Entity] struct {
	kind   Kind
	api    Fetcher
	urls   relation.URLConfig
	decode decoder[E]
	items  *cache.FetchCache[*E]
	lists  *cache.FetchCache[*List[E]]
}

func newSource[E Entity](ctx context.Context, reg *cache.Registry, kind Kind, api Fetcher, urls relation.URLConfig, decode decoder[E], opts ...cache.Option) (*Source[E], error) {
	items, err := cache.Open[*E](ctx, reg, kind.ItemCache(), opts...)
	if err != nil {
		return nil, err
	}
	lists, err := cache.Open[*List[E]](ctx, reg, kind.ListCache(), opts...)
	if err != nil {
		reg.Unregister(kind.ItemCache())
		return nil, err
	}
	return &Source[E]{
		kind:   kind,
		api:    api,
		urls:   urls,
		decode: decode,
		items:  items,
		lists:  lists,
	}, nil
}

// Kind returns the kind this source serves.
func (s *Source[E]) Kind() Kind {
	return s.kind
}

// Get returns the entity with the given id, or nil when the server has none.
func (s *Source[E]) Get(ctx context.Context, id int64) (*E, error) {
	key := cache.ItemKey(s.kind.Route(), id)
	return s.items.Resolve(ctx, key, func(ctx context.Context, key string) (*E, error) {
		raw, err := s.api.Fetch(ctx, archive.Request{
			Endpoint: s.kind.Route(),
			Path:     archive.ItemPath(s.kind.Route(), id),
			Cache:    s.items.Name(),
			Key:      key,
		})
		if err != nil {
			return nil, err
		}
		if archive.IsAbsent(raw) {
			return nil, nil
		}
		m, err := s.relations(raw)
		if err != nil {
			return nil, err
		}
		e, err := s.decode(raw, m)
		if err != nil {
			return nil, err
		}
		return &e, nil
	})
}

// List returns one page of entities, or nil on a null response. Every listed
// entity is also stored in the item cache.
func (s *Source[E]) List(ctx context.Context, page query.Page) (*List[E], error) {
	page = page.Normalize()
	key := cache.ListKey(s.kind.Route(), page.Search, page.Page, page.Limit)
	return s.lists.Resolve(ctx, key, func(ctx context.Context, key string) (*List[E], error) {
		raw, err := s.api.Fetch(ctx, archive.Request{
			Endpoint: s.kind.Route(),
			Path:     s.kind.Route(),
			Params:   page.Params(),
			Cache:    s.lists.Name(),
			Key:      key,
		})
		if err != nil {
			return nil, err
		}
		if archive.IsAbsent(raw) {
			return nil, nil
		}
		list, err := s.decodeList(raw)
		if err != nil {
			return nil, err
		}
		s.seed(ctx, list.Items)
		return list, nil
	})
}

// Peek returns a settled item without fetching.
func (s *Source[E]) Peek(id int64) (*E, bool) {
	return s.items.Get(cache.ItemKey(s.kind.Route(), id))
}

func (s *Source[E]) relations(raw []byte) (*relation.Map, error) {
	var bag relation.Bag
	if err := archive.Decode(raw, &bag); err != nil {
		return nil, err
	}
	return relation.Build(bag, s.urls), nil
}

// decodeList reads {list, total} with the relations at the top level. Older
// servers name the array "categories".
func (s *Source[E]) decodeList(raw []byte) (*List[E], error) {
	arr := gjson.GetBytes(raw, "list")
	if !arr.Exists() {
		arr = gjson.GetBytes(raw, "categories")
	}
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: %s list has no list array", archive.ErrMalformedResponse, s.kind)
	}

	m, err := s.relations(raw)
	if err != nil {
		return nil, err
	}

	records := arr.Array()
	list := &List[E]{Items: make([]E, 0, len(records))}
	for _, rec := range records {
		e, err := s.decode([]byte(rec.Raw), m)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, e)
	}
	list.Total = len(list.Items)
	if total := gjson.GetBytes(raw, "total"); total.Exists() {
		list.Total = int(total.Int())
	}
	return list, nil
}

func (s *Source[E]) seed(ctx context.Context, items []E) {
	if len(items) == 0 {
		return
	}
	pairs := make([]cache.Pair[string, *E], 0, len(items))
	for i := range items {
		e := items[i]
		pairs = append(pairs, cache.Pair[string, *E]{Key: e.Ref().Key(), Value: &e})
	}
	// Keys come from ItemKey and are always valid.
	_ = s.items.SetMany(ctx, pairs)
}
