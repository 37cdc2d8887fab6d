package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// FetchMeta describes one network fetch for telemetry purposes.
type FetchMeta struct {
	Endpoint string // Logical endpoint such as "tags", "posts" or "config" (required)
	Cache    string // Name of the fetch cache that issued the request (optional)
	Key      string // Cache key of the request (optional)
	URL      string // Request URL (optional)
}

// SpanName returns the deterministic span name for this fetch.
// Format: archive.fetch.<endpoint>
func (m FetchMeta) SpanName() string {
	return "archive.fetch." + m.Endpoint
}

// Validate reports whether the metadata is usable.
func (m FetchMeta) Validate() error {
	if m.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

func (m FetchMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("fetch.endpoint", m.Endpoint),
	}
	if m.Cache != "" {
		attrs = append(attrs, attribute.String("cache.name", m.Cache))
	}
	return attrs
}

func (m FetchMeta) fields() []Field {
	fields := []Field{{Key: "endpoint", Value: m.Endpoint}}
	if m.Cache != "" {
		fields = append(fields, Field{Key: "cache", Value: m.Cache})
	}
	if m.Key != "" {
		fields = append(fields, Field{Key: "key", Value: m.Key})
	}
	if m.URL != "" {
		fields = append(fields, Field{Key: "url", Value: m.URL})
	}
	return fields
}

// Tracer wraps OpenTelemetry tracing with fetch-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new client span for a fetch.
	StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with fetch metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("fetch.error", false))
	if meta.URL != "" {
		attrs = append(attrs, attribute.String("url.full", meta.URL))
	}
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("cache.key", meta.Key))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("fetch.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
