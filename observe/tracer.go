package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// FetchMeta describes one fetch for telemetry purposes.
type FetchMeta struct {
	Resource string // Logical resource, e.g. "exercises" (required)
	Key      string // Cache key, e.g. "/api/exercises"
	Trigger  string // What caused the fetch: mount, interval, focus, ...
}

// SpanName returns the deterministic span name: cache.fetch.<resource>.
func (m FetchMeta) SpanName() string {
	return "cache.fetch." + m.Resource
}

// Validate reports whether m carries a resource.
func (m FetchMeta) Validate() error {
	if m.Resource == "" {
		return ErrMissingResource
	}
	return nil
}

type triggerKey struct{}

// ContextWithTrigger records the revalidation trigger on ctx so the fetch
// middleware can tag its span, metrics, and log line.
func ContextWithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// TriggerFromContext returns the trigger set by ContextWithTrigger.
func TriggerFromContext(ctx context.Context) string {
	s, _ := ctx.Value(triggerKey{}).(string)
	return s
}

// Tracer wraps OpenTelemetry tracing with fetch span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer. A nil tracer yields a no-op.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		t = tracenoop.NewTracerProvider().Tracer("noop")
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("cache.resource", meta.Resource),
		attribute.Bool("cache.error", false),
	}
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("cache.key", meta.Key))
	}
	if meta.Trigger != "" {
		attrs = append(attrs, attribute.String("cache.trigger", meta.Trigger))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
