package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/jonwraymond/archiveview/cache"
	"github.com/jonwraymond/archiveview/query"
	"github.com/jonwraymond/archiveview/relation"
)

// Cache names used by Posts.
const (
	PostsCache    = "fetch.posts"
	PostListCache = "fetch.posts.list"
	SummaryCache  = "fetch.summary"
)

const (
	postsRoute   = "posts"
	summaryRoute = "summary"
	summaryKey   = "summary"
)

// Post list orderings accepted by the server.
const (
	OrderByUpdated = "updated"
	OrderByID      = "id"
	OrderByRandom  = "random"
)

// ErrInvalidOrder is returned for an unknown post ordering.
var ErrInvalidOrder = errors.New("archive: invalid post ordering")

// Posts reads posts through fetch caches. Raw bodies are cached so a
// restored session can rebuild relation maps without the network.
type Posts struct {
	client  *Client
	urls    relation.URLConfig
	keyer   cache.Keyer
	memo    *relation.Memo
	items   *cache.FetchCache[json.RawMessage]
	lists   *cache.FetchCache[json.RawMessage]
	summary *cache.FetchCache[*Summary]
}

// NewPosts opens the post caches in reg.
func NewPosts(ctx context.Context, reg *cache.Registry, client *Client, urls relation.URLConfig) (*Posts, error) {
	items, err := cache.Open[json.RawMessage](ctx, reg, PostsCache)
	if err != nil {
		return nil, err
	}
	lists, err := cache.Open[json.RawMessage](ctx, reg, PostListCache)
	if err != nil {
		reg.Unregister(PostsCache)
		return nil, err
	}
	summary, err := cache.Open[*Summary](ctx, reg, SummaryCache)
	if err != nil {
		reg.Unregister(PostsCache)
		reg.Unregister(PostListCache)
		return nil, err
	}
	return &Posts{
		client:  client,
		urls:    urls,
		keyer:   cache.NewDefaultKeyer(),
		memo:    relation.NewMemo(urls),
		items:   items,
		lists:   lists,
		summary: summary,
	}, nil
}

// Post returns the post with the given id, or nil when the server has no
// such post.
func (p *Posts) Post(ctx context.Context, id int64) (*Post, error) {
	key := cache.ItemKey(postsRoute, id)
	raw, err := p.items.Resolve(ctx, key, func(ctx context.Context, key string) (json.RawMessage, error) {
		raw, err := p.client.Fetch(ctx, Request{
			Endpoint: postsRoute,
			Path:     ItemPath(postsRoute, id),
			Cache:    PostsCache,
			Key:      key,
		})
		if err != nil || IsAbsent(raw) {
			return raw, err
		}
		// Only bodies that decode are settled; a malformed one stays Failed.
		if _, err := p.decodePost(raw); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	if IsAbsent(raw) {
		return nil, nil
	}
	return p.decodePost(raw)
}

func (p *Posts) decodePost(raw []byte) (*Post, error) {
	var payload relation.Payload[PostRecord]
	if err := Decode(raw, &payload); err != nil {
		return nil, err
	}
	m, err := p.memo.Map(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &Post{
		PostRecord:  payload.Item,
		Tags:        payload.Bag.Tags,
		Authors:     payload.Bag.Authors,
		Collections: payload.Bag.Collections,
		Relations:   m,
	}, nil
}

// listRequest is the key input of a post listing.
type listRequest struct {
	Search      string  `json:"search"`
	Tags        []int64 `json:"tags"`
	Authors     []int64 `json:"authors"`
	Platforms   []int64 `json:"platforms"`
	Collections []int64 `json:"collections"`
	OrderBy     string  `json:"order_by"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

// List returns one page of posts matching f, or nil on a null response.
// The Search field of page is ignored in favor of f.Search.
func (p *Posts) List(ctx context.Context, f query.SearchFilter, page query.Page) (*PostList, error) {
	switch f.OrderBy {
	case "", OrderByUpdated, OrderByID, OrderByRandom:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrder, f.OrderBy)
	}
	page = page.Normalize()
	f = normalizeFilter(f)

	key, err := p.keyer.Key(postsRoute, listRequest{
		Search:      f.Search,
		Tags:        f.Tags,
		Authors:     f.Authors,
		Platforms:   f.Platforms,
		Collections: f.Collections,
		OrderBy:     f.OrderBy,
		Page:        page.Page,
		Limit:       page.Limit,
	})
	if err != nil {
		return nil, err
	}

	params := append(f.Params(),
		query.Param{Name: "page", Value: page.Page},
		query.Param{Name: "limit", Value: page.Limit},
	)
	raw, err := p.lists.Resolve(ctx, key, func(ctx context.Context, key string) (json.RawMessage, error) {
		raw, err := p.client.Fetch(ctx, Request{
			Endpoint: postsRoute,
			Path:     postsRoute,
			Params:   params,
			Cache:    PostListCache,
			Key:      key,
		})
		if err != nil || IsAbsent(raw) {
			return raw, err
		}
		if _, err := decodePostList(raw, p.urls); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	if IsAbsent(raw) {
		return nil, nil
	}
	return decodePostList(raw, p.urls)
}

func decodePostList(raw []byte, urls relation.URLConfig) (*PostList, error) {
	list := gjson.GetBytes(raw, "list")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: post list has no list array", ErrMalformedResponse)
	}
	var items []PostPreview
	if err := Decode([]byte(list.Raw), &items); err != nil {
		return nil, err
	}
	var bag relation.Bag
	if err := Decode(raw, &bag); err != nil {
		return nil, err
	}
	return &PostList{
		Items:     items,
		Total:     int(gjson.GetBytes(raw, "total").Int()),
		Relations: relation.Build(bag, urls),
	}, nil
}

// normalizeFilter sorts and deduplicates id filters, which the server
// combines with AND, so that equivalent filters share a cache key.
func normalizeFilter(f query.SearchFilter) query.SearchFilter {
	norm := func(ids []int64) []int64 {
		if len(ids) == 0 {
			return nil
		}
		ids = slices.Clone(ids)
		slices.Sort(ids)
		return slices.Compact(ids)
	}
	f.Tags = norm(f.Tags)
	f.Authors = norm(f.Authors)
	f.Platforms = norm(f.Platforms)
	f.Collections = norm(f.Collections)
	return f
}

// Summary returns archive-wide counts, or nil on a null response.
func (p *Posts) Summary(ctx context.Context) (*Summary, error) {
	return p.summary.Resolve(ctx, summaryKey, func(ctx context.Context, key string) (*Summary, error) {
		raw, err := p.client.Fetch(ctx, Request{
			Endpoint: summaryRoute,
			Path:     summaryRoute,
			Cache:    SummaryCache,
			Key:      key,
		})
		if err != nil {
			return nil, err
		}
		if IsAbsent(raw) {
			return nil, nil
		}
		var s Summary
		if err := Decode(raw, &s); err != nil {
			return nil, err
		}
		return &s, nil
	})
}

// Caches returns the names of the caches Posts owns.
func (p *Posts) Caches() []string {
	return []string{p.items.Name(), p.lists.Name(), p.summary.Name()}
}
