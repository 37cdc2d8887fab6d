package query

import (
	"net/url"
	"strconv"
)

// Pagination defaults used by the archive API when a parameter is missing.
const (
	DefaultPage  = 0
	DefaultLimit = 20
)

// Page selects one page of a list endpoint.
type Page struct {
	Search string
	Page   int
	Limit  int
}

// Normalize returns p with negative pages clamped to zero and a non-positive
// limit replaced by DefaultLimit. Search text is passed through unchanged,
// so " cat" and "cat" are distinct queries with distinct keys.
func (p Page) Normalize() Page {
	if p.Page < 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// Params returns the list parameters in the order the API documents them.
func (p Page) Params() Params {
	return Params{
		{Name: "search", Value: p.Search},
		{Name: "page", Value: p.Page},
		{Name: "limit", Value: p.Limit},
	}
}

// SearchFilter narrows the post listing. Id filters are combined with AND on
// the server.
type SearchFilter struct {
	Search      string
	Tags        []int64
	Authors     []int64
	Platforms   []int64
	Collections []int64
	OrderBy     string
}

// Params encodes the filter with one repeated parameter per id.
func (f SearchFilter) Params() Params {
	return Params{
		{Name: "search", Value: f.Search},
		{Name: "tags", Value: f.Tags},
		{Name: "authors", Value: f.Authors},
		{Name: "platforms", Value: f.Platforms},
		{Name: "collections", Value: f.Collections},
		{Name: "order_by", Value: f.OrderBy},
	}
}

// Empty reports whether the filter selects every post.
func (f SearchFilter) Empty() bool {
	return f.Search == "" && len(f.Tags) == 0 && len(f.Authors) == 0 &&
		len(f.Platforms) == 0 && len(f.Collections) == 0
}

// ParseSearchFilter reads a filter back from query values. Ids that do not
// parse as integers are skipped.
func ParseSearchFilter(values url.Values) SearchFilter {
	return SearchFilter{
		Search:      values.Get("search"),
		Tags:        parseIDs(values["tags"]),
		Authors:     parseIDs(values["authors"]),
		Platforms:   parseIDs(values["platforms"]),
		Collections: parseIDs(values["collections"]),
		OrderBy:     values.Get("order_by"),
	}
}

// ParsePage reads pagination from query values, applying defaults.
func ParsePage(values url.Values) Page {
	p := Page{Search: values.Get("search"), Page: DefaultPage, Limit: DefaultLimit}
	if n, err := strconv.Atoi(values.Get("page")); err == nil {
		p.Page = n
	}
	if n, err := strconv.Atoi(values.Get("limit")); err == nil {
		p.Limit = n
	}
	return p.Normalize()
}

func parseIDs(raw []string) []int64 {
	if len(raw) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
