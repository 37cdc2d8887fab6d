package health

import (
	"context"

	"github.com/jonwraymond/archiveview/cache"
)

// CacheChecker reports fetch cache occupancy. It is degraded while any cache
// holds failed keys.
type CacheChecker struct {
	stats func() []cache.Stats
}

// NewCacheChecker creates a checker over a stats source, typically
// (*cache.Registry).Stats.
func NewCacheChecker(stats func() []cache.Stats) *CacheChecker {
	return &CacheChecker{stats: stats}
}

// Name returns "cache".
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check summarizes every cache.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	all := c.stats()
	details := make(map[string]any, len(all))
	var failing []string
	for _, s := range all {
		details[s.Name] = s
		if s.Failed > 0 {
			failing = append(failing, s.Name)
		}
	}

	if len(failing) > 0 {
		details["failing"] = failing
		return Degraded("recent fetch failures").WithDetails(details)
	}
	return Healthy("caches ok").WithDetails(details)
}

var _ Checker = (*CacheChecker)(nil)
