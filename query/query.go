package query

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
)

// ErrUnsupportedValue is returned when a parameter value cannot be stringified.
var ErrUnsupportedValue = errors.New("query: unsupported parameter value")

// Param is a single named query parameter.
//
// Value may be nil (omitted), a scalar (string, bool, integer, float,
// fmt.Stringer), a pointer to a scalar (nil pointer is omitted), a slice of
// scalars (expanded into repeated parameters) or a func() any that is resolved
// before encoding.
type Param struct {
	Name  string
	Value any
}

// Params is an ordered parameter list. Order is preserved in the encoded query.
type Params []Param

// Add appends a parameter and returns the list for chaining.
func (p Params) Add(name string, value any) Params {
	return append(p, Param{Name: name, Value: value})
}

// FromMap converts a map into Params with names sorted, which is the same
// ordering url.Values.Encode produces.
func FromMap(m map[string]any) Params {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	p := make(Params, 0, len(m))
	for _, name := range names {
		p = append(p, Param{Name: name, Value: m[name]})
	}
	return p
}

// Encode serializes the parameters into a query string.
func (p Params) Encode() (string, error) {
	var buf []byte
	for _, param := range p {
		values, err := stringify(param.Value)
		if err != nil {
			return "", fmt.Errorf("%w: %s", err, param.Name)
		}
		for _, v := range values {
			if len(buf) > 0 {
				buf = append(buf, '&')
			}
			buf = append(buf, url.QueryEscape(param.Name)...)
			buf = append(buf, '=')
			buf = append(buf, url.QueryEscape(v)...)
		}
	}
	return string(buf), nil
}

// Build parses base and appends the encoded parameters to any query it
// already carries. Parameters named in params replace same-named parameters
// of the base.
func Build(base string, params Params) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	return apply(u, params)
}

// Resolve joins ref onto origin (like a browser resolving a relative link)
// and then applies params.
func Resolve(origin *url.URL, ref string, params Params) (*url.URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	if origin != nil {
		r = origin.ResolveReference(r)
	}
	return apply(r, params)
}

func apply(u *url.URL, params Params) (*url.URL, error) {
	encoded, err := params.Encode()
	if err != nil {
		return nil, err
	}

	existing := u.Query()
	for _, param := range params {
		existing.Del(param.Name)
	}

	var raw string
	if len(existing) > 0 {
		raw = existing.Encode()
	}
	if encoded != "" {
		if raw != "" {
			raw += "&"
		}
		raw += encoded
	}
	u.RawQuery = raw
	return u, nil
}

// stringify returns the encoded forms of v: none for absent values, one for
// scalars, one per element for slices.
func stringify(v any) ([]string, error) {
	if fn, ok := v.(func() any); ok {
		v = fn()
	}
	if v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case string:
		if val == "" {
			return nil, nil
		}
		return []string{val}, nil
	case []string:
		out := make([]string, 0, len(val))
		for _, s := range val {
			if s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	case fmt.Stringer:
		return stringify(val.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return stringify(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			if elem.Kind() == reflect.Slice || elem.Kind() == reflect.Array {
				return nil, ErrUnsupportedValue
			}
			s, err := stringify(elem.Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, s...)
		}
		return out, nil
	}

	s, ok := scalar(rv)
	if !ok {
		return nil, ErrUnsupportedValue
	}
	if s == "" {
		return nil, nil
	}
	return []string{s}, nil
}

func scalar(rv reflect.Value) (string, bool) {
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	default:
		return "", false
	}
}
