// Package observe provides logging, tracing and metrics for archive fetches
// and cache activity.
//
// It is instrumentation only: no fetching and no caching. Callers wrap their
// network calls with Middleware and report cache events through Metrics.
package observe
