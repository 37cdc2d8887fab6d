package archive

import (
	"context"
	"time"

	"github.com/jonwraymond/archiveview/health"
)

// Checker probes the API by loading the public configuration.
type Checker struct {
	client *Client
}

// Checker returns a health checker for c.
func (c *Client) Checker() *Checker {
	return &Checker{client: c}
}

// Name returns "archive".
func (ch *Checker) Name() string {
	return "archive"
}

// Check fetches the config documents directly, without the fallback to
// defaults that PublicConfig applies.
func (ch *Checker) Check(ctx context.Context) health.Result {
	start := time.Now()
	details := map[string]any{"base_url": ch.client.BaseURL()}

	var lastErr error
	reachable := false
	for _, path := range configPaths {
		raw, err := ch.client.FetchURL(ctx, Request{Endpoint: "health", Path: path})
		if err != nil {
			lastErr = err
			continue
		}
		reachable = true
		if !IsAbsent(raw) {
			details["config"] = path
			return health.Healthy("api reachable").WithDetails(details).WithDuration(time.Since(start))
		}
	}
	if reachable {
		return health.Degraded("api reachable, no public config").
			WithDetails(details).WithDuration(time.Since(start))
	}
	return health.Unhealthy("api unreachable", lastErr).WithDetails(details).WithDuration(time.Since(start))
}

var _ health.Checker = (*Checker)(nil)
