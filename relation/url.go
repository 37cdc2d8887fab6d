package relation

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBucketSize is the number of posts per directory in the bucketed layout.
const DefaultBucketSize = 2048

// Default public bases, used when the server config omits them.
const (
	DefaultImagesURL   = "/images"
	DefaultResourceURL = "/resource"
)

// ErrUnknownScheme is returned by ParseScheme for unrecognized names.
var ErrUnknownScheme = errors.New("relation: unknown file url scheme")

// Scheme selects the directory layout files are published under.
type Scheme int

const (
	// SchemeBucketed lays files out as {base}/{post/size}/{post%size}/{filename}.
	SchemeBucketed Scheme = iota
	// SchemeFlat lays files out as {base}/{author}/{post}/{filename}.
	SchemeFlat
)

// String returns the configuration name of the scheme.
func (s Scheme) String() string {
	switch s {
	case SchemeBucketed:
		return "bucketed"
	case SchemeFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// ParseScheme maps a configuration name to a Scheme. The empty string selects
// SchemeBucketed.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bucketed":
		return SchemeBucketed, nil
	case "flat":
		return SchemeFlat, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

// URLConfig derives public file URLs from file metadata.
type URLConfig struct {
	ImagesURL   string
	ResourceURL string
	Scheme      Scheme
	BucketSize  int64
}

// DefaultURLConfig returns the bucketed layout under /images and /resource.
func DefaultURLConfig() URLConfig {
	return URLConfig{
		ImagesURL:   DefaultImagesURL,
		ResourceURL: DefaultResourceURL,
		Scheme:      SchemeBucketed,
		BucketSize:  DefaultBucketSize,
	}
}

// FileURL returns the public URL of f.
func (c URLConfig) FileURL(f FileMeta) string {
	base := c.ResourceURL
	if base == "" {
		base = DefaultResourceURL
	}
	if f.IsImage() {
		base = c.ImagesURL
		if base == "" {
			base = DefaultImagesURL
		}
	}
	base = strings.TrimRight(base, "/")
	name := url.PathEscape(f.Filename)

	switch c.Scheme {
	case SchemeFlat:
		return base + "/" + strconv.FormatInt(f.Author, 10) + "/" + strconv.FormatInt(f.Post, 10) + "/" + name
	default:
		size := c.BucketSize
		if size <= 0 {
			size = DefaultBucketSize
		}
		return base + "/" + strconv.FormatInt(f.Post/size, 10) + "/" + strconv.FormatInt(f.Post%size, 10) + "/" + name
	}
}
