package archive

import (
	"context"
	"errors"

	"github.com/jonwraymond/archiveview/observe"
	"github.com/jonwraymond/archiveview/relation"
)

// Config endpoints, tried in order.
var configPaths = []string{"/config.json", "/api/config.json"}

// PublicConfig is the server's public configuration.
type PublicConfig struct {
	ImagesURL   string `json:"images_url,omitempty"`
	ResourceURL string `json:"resource_url,omitempty"`
}

// DefaultPublicConfig returns the defaults used when the server publishes
// nothing.
func DefaultPublicConfig() PublicConfig {
	return PublicConfig{
		ImagesURL:   relation.DefaultImagesURL,
		ResourceURL: relation.DefaultResourceURL,
	}
}

// WithDefaults fills empty fields from DefaultPublicConfig.
func (p PublicConfig) WithDefaults() PublicConfig {
	d := DefaultPublicConfig()
	if p.ImagesURL == "" {
		p.ImagesURL = d.ImagesURL
	}
	if p.ResourceURL == "" {
		p.ResourceURL = d.ResourceURL
	}
	return p
}

// Override returns p with every non-empty field of o applied on top.
func (p PublicConfig) Override(o PublicConfig) PublicConfig {
	if o.ImagesURL != "" {
		p.ImagesURL = o.ImagesURL
	}
	if o.ResourceURL != "" {
		p.ResourceURL = o.ResourceURL
	}
	return p
}

// URLConfig returns file URL settings for the given layout.
func (p PublicConfig) URLConfig(scheme relation.Scheme, bucketSize int64) relation.URLConfig {
	p = p.WithDefaults()
	if bucketSize <= 0 {
		bucketSize = relation.DefaultBucketSize
	}
	return relation.URLConfig{
		ImagesURL:   p.ImagesURL,
		ResourceURL: p.ResourceURL,
		Scheme:      scheme,
		BucketSize:  bucketSize,
	}
}

// PublicConfig loads /config.json, falling back to /api/config.json. When
// neither yields a usable document the defaults are returned together with
// the last error, so callers can log it and carry on.
func (c *Client) PublicConfig(ctx context.Context) (PublicConfig, error) {
	var errs []error
	for _, path := range configPaths {
		raw, err := c.FetchURL(ctx, Request{Endpoint: "config", Path: path})
		if err != nil {
			if ctx.Err() != nil {
				return DefaultPublicConfig(), err
			}
			errs = append(errs, err)
			continue
		}
		if IsAbsent(raw) {
			continue
		}
		var pc PublicConfig
		if err := Decode(raw, &pc); err != nil {
			errs = append(errs, err)
			continue
		}
		return pc.WithDefaults(), nil
	}

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Warn(ctx, "public config unavailable, using defaults", observe.F("error", err.Error()))
	}
	return DefaultPublicConfig(), err
}
