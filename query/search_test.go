package query

import (
	"net/url"
	"reflect"
	"testing"
)

// TestPage_Normalize tests pagination defaults.
func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero value", Page{}, Page{Limit: DefaultLimit}},
		{"negative page", Page{Page: -3, Limit: 5}, Page{Page: 0, Limit: 5}},
		{"search kept verbatim", Page{Search: "  cat ", Page: 1, Limit: 10}, Page{Search: "  cat ", Page: 1, Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestPage_Params tests that an empty search is omitted but zero page is kept.
func TestPage_Params(t *testing.T) {
	got, err := Page{Limit: 20}.Params().Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if want := "page=0&limit=20"; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

// TestSearchFilter_RoundTrip tests encode then parse of a filter.
func TestSearchFilter_RoundTrip(t *testing.T) {
	f := SearchFilter{
		Search:      "a b",
		Tags:        []int64{1, 2},
		Authors:     []int64{9},
		Collections: []int64{4},
	}
	encoded, err := f.Params().Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if want := "search=a+b&tags=1&tags=2&authors=9&collections=4"; encoded != want {
		t.Errorf("Encode() = %q, want %q", encoded, want)
	}

	values, err := url.ParseQuery(encoded)
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	if got := ParseSearchFilter(values); !reflect.DeepEqual(got, f) {
		t.Errorf("ParseSearchFilter() = %+v, want %+v", got, f)
	}
}

// TestParseSearchFilter_SkipsInvalidIDs tests lenient id parsing.
func TestParseSearchFilter_SkipsInvalidIDs(t *testing.T) {
	got := ParseSearchFilter(url.Values{"tags": {"1", "x", "3"}})
	if want := []int64{1, 3}; !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("Tags = %v, want %v", got.Tags, want)
	}
	if got.Empty() {
		t.Error("Empty() = true, want false")
	}
	if !(SearchFilter{}).Empty() {
		t.Error("zero filter Empty() = false, want true")
	}
}

// TestParsePage tests pagination parsing with defaults.
func TestParsePage(t *testing.T) {
	got := ParsePage(url.Values{"page": {"2"}, "limit": {"bogus"}})
	want := Page{Page: 2, Limit: DefaultLimit}
	if got != want {
		t.Errorf("ParsePage() = %+v, want %+v", got, want)
	}
}
