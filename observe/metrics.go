package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheEvent names a fetch cache occurrence worth counting.
type CacheEvent string

const (
	EventHit           CacheEvent = "hit"
	EventMiss          CacheEvent = "miss"
	EventCoalesced     CacheEvent = "coalesced"
	EventEvicted       CacheEvent = "evicted"
	EventRestored      CacheEvent = "restored"
	EventPersisted     CacheEvent = "persisted"
	EventPersistFailed CacheEvent = "persist_failed"
	EventCleared       CacheEvent = "cleared"
)

// Metrics records fetch and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records one network fetch with duration and error status.
	RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error)

	// RecordCacheEvent adds n occurrences of event for the named cache.
	RecordCacheEvent(ctx context.Context, cache string, event CacheEvent, n int64)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheEvents  metric.Int64Counter
}

// NewMetrics creates Metrics backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"archive.fetch.total",
		metric.WithDescription("Total number of archive fetches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"archive.fetch.errors",
		metric.WithDescription("Total number of failed archive fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"archive.fetch.duration_ms",
		metric.WithDescription("Archive fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheEvents, err := meter.Int64Counter(
		"cache.events",
		metric.WithDescription("Fetch cache events by cache name and kind"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheEvents:  cacheEvents,
	}, nil
}

// MetricsFromObserver creates Metrics from the observer's meter.
func MetricsFromObserver(obs Observer) (Metrics, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	return NewMetrics(obs.Meter())
}

func (m *metricsImpl) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheEvent(ctx context.Context, cache string, event CacheEvent, n int64) {
	if n <= 0 {
		return
	}
	m.cacheEvents.Add(ctx, n, metric.WithAttributes(
		attribute.String("cache.name", cache),
		attribute.String("cache.event", string(event)),
	))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordFetch(context.Context, FetchMeta, time.Duration, error)   {}
func (noopMetrics) RecordCacheEvent(context.Context, string, CacheEvent, int64) {}
