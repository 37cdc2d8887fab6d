package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/archiveview/cache"
	"github.com/jonwraymond/archiveview/query"
	"github.com/jonwraymond/archiveview/relation"
)

// Resolver dispatches fetches to the source of each kind.
type Resolver struct {
	authors     *Source[Author]
	tags        *Source[Tag]
	platforms   *Source[Platform]
	collections *Source[Collection]
}

// NewResolver opens the eight category caches in reg. opts apply on top of
// the registry defaults.
func NewResolver(ctx context.Context, reg *cache.Registry, api Fetcher, urls relation.URLConfig, opts ...cache.Option) (*Resolver, error) {
	var (
		r    Resolver
		errs []error
		err  error
	)
	r.authors, err = newSource(ctx, reg, KindAuthor, api, urls, decodeWith(newAuthor), opts...)
	errs = append(errs, err)
	r.tags, err = newSource(ctx, reg, KindTag, api, urls, decodeWith(newTag), opts...)
	errs = append(errs, err)
	r.platforms, err = newSource(ctx, reg, KindPlatform, api, urls, decodeWith(newPlatform), opts...)
	errs = append(errs, err)
	r.collections, err = newSource(ctx, reg, KindCollection, api, urls, decodeWith(newCollection), opts...)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		r.unregister(reg)
		return nil, fmt.Errorf("category: open caches: %w", err)
	}
	return &r, nil
}

// unregister drops the caches of every source that was opened.
func (r *Resolver) unregister(reg *cache.Registry) {
	opened := map[Kind]bool{
		KindAuthor:     r.authors != nil,
		KindTag:        r.tags != nil,
		KindPlatform:   r.platforms != nil,
		KindCollection: r.collections != nil,
	}
	for k, ok := range opened {
		if ok {
			reg.Unregister(k.ItemCache())
			reg.Unregister(k.ListCache())
		}
	}
}

// Authors returns the author source.
func (r *Resolver) Authors() *Source[Author] { return r.authors }

// Tags returns the tag source.
func (r *Resolver) Tags() *Source[Tag] { return r.tags }

// Platforms returns the platform source.
func (r *Resolver) Platforms() *Source[Platform] { return r.platforms }

// Collections returns the collection source.
func (r *Resolver) Collections() *Source[Collection] { return r.collections }

// Resolve returns the entity of kind with id. An absent entity is a nil
// Entity with a nil error.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, id int64) (Entity, error) {
	switch kind {
	case KindAuthor:
		return get(ctx, r.authors, id)
	case KindTag:
		return get(ctx, r.tags, id)
	case KindPlatform:
		return get(ctx, r.platforms, id)
	case KindCollection:
		return get(ctx, r.collections, id)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

// ResolveRef resolves a Ref.
func (r *Resolver) ResolveRef(ctx context.Context, ref Ref) (Entity, error) {
	return r.Resolve(ctx, ref.Kind, ref.ID)
}

// ResolveList returns one page of kind, or nil on a null response.
func (r *Resolver) ResolveList(ctx context.Context, kind Kind, page query.Page) (*List[Entity], error) {
	switch kind {
	case KindAuthor:
		return list(ctx, r.authors, page)
	case KindTag:
		return list(ctx, r.tags, page)
	case KindPlatform:
		return list(ctx, r.platforms, page)
	case KindCollection:
		return list(ctx, r.collections, page)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

func get[E Entity](ctx context.Context, s *Source[E], id int64) (Entity, error) {
	e, err := s.Get(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	return *e, nil
}

func list[E Entity](ctx context.Context, s *Source[E], page query.Page) (*List[Entity], error) {
	l, err := s.List(ctx, page)
	if err != nil || l == nil {
		return nil, err
	}
	out := &List[Entity]{Items: make([]Entity, len(l.Items)), Total: l.Total}
	for i, e := range l.Items {
		out.Items[i] = e
	}
	return out, nil
}

// Caches returns the names of the caches the resolver owns.
func (r *Resolver) Caches() []string {
	names := make([]string, 0, 2*len(kinds))
	for _, k := range Kinds() {
		names = append(names, k.ItemCache(), k.ListCache())
	}
	return names
}
