package query

import (
	"errors"
	"net/url"
	"testing"
)

type label string

func (l label) String() string { return "label:" + string(l) }

// TestParams_Encode tests parameter serialization rules.
func TestParams_Encode(t *testing.T) {
	n := 7
	var nilInt *int

	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"empty", nil, ""},
		{"scalar string", Params{{"search", "a b"}}, "search=a+b"},
		{"repeated slice", Params{{"tags", []int{1, 2}}}, "tags=1&tags=2"},
		{"nil omitted", Params{{"page", nil}}, ""},
		{"empty string omitted", Params{{"search", ""}}, ""},
		{"nil slice omitted", Params{{"tags", []int64(nil)}}, ""},
		{"nil pointer omitted", Params{{"page", nilInt}}, ""},
		{"pointer dereferenced", Params{{"page", &n}}, "page=7"},
		{"bool", Params{{"full", true}}, "full=true"},
		{"float", Params{{"ratio", 1.5}}, "ratio=1.5"},
		{"stringer", Params{{"kind", label("x")}}, "kind=label%3Ax"},
		{"lazy value", Params{{"page", func() any { return 3 }}}, "page=3"},
		{"lazy nil", Params{{"page", func() any { return nil }}}, ""},
		{"order preserved", Params{{"z", 1}, {"a", 2}}, "z=1&a=2"},
		{"string slice skips empty", Params{{"q", []string{"x", "", "y"}}}, "q=x&q=y"},
		{
			"mixed scalars and slices",
			Params{{"search", "a b"}, {"tags", []int{1, 2}}, {"page", nil}},
			"search=a+b&tags=1&tags=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.params.Encode()
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParams_Encode_Unsupported tests rejection of values with no string form.
func TestParams_Encode_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"map", map[string]int{"a": 1}},
		{"struct", struct{ A int }{1}},
		{"nested slice", [][]int{{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Params{{"x", tt.value}}.Encode()
			if !errors.Is(err, ErrUnsupportedValue) {
				t.Errorf("Encode() error = %v, want ErrUnsupportedValue", err)
			}
		})
	}
}

// TestFromMap tests that map input is encoded in sorted name order.
func TestFromMap(t *testing.T) {
	got, err := FromMap(map[string]any{
		"tags":   []int{1, 2},
		"search": "a b",
		"page":   nil,
	}).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if want := "search=a+b&tags=1&tags=2"; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

// TestBuild tests URL construction against a base.
func TestBuild(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		params Params
		want   string
	}{
		{"plain", "http://host/api/tags", Params{{"page", 0}, {"limit", 20}}, "http://host/api/tags?page=0&limit=20"},
		{"no params", "/api/tags/1", nil, "/api/tags/1"},
		{"keeps base query", "/api/posts?x=1", Params{{"page", 2}}, "/api/posts?x=1&page=2"},
		{"replaces same name", "/api/posts?page=9", Params{{"page", 2}}, "/api/posts?page=2"},
		{"drops replaced when absent", "/api/posts?page=9", Params{{"page", nil}}, "/api/posts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Build(tt.base, tt.params)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := u.String(); got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestBuild_MalformedBase tests that parse errors propagate.
func TestBuild_MalformedBase(t *testing.T) {
	_, err := Build("http://[::1", nil)
	if err == nil {
		t.Fatal("Build() error = nil, want parse error")
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Errorf("Build() error = %T, want *url.Error", err)
	}
}

// TestResolve tests relative references against an origin.
func TestResolve(t *testing.T) {
	origin, _ := url.Parse("https://archive.example/posts/3")
	u, err := Resolve(origin, "/api/config.json", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got, want := u.String(), "https://archive.example/api/config.json"; got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}

	u, err = Resolve(nil, "/api/tags", Params{{"search", "x"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got, want := u.String(), "/api/tags?search=x"; got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}
