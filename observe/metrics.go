package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache fetch metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records one network fetch with its duration and outcome.
	RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error)

	// RecordDedup records a trigger that was absorbed by an in-flight or
	// recently settled request instead of dispatching a new one.
	RecordDedup(ctx context.Context, meta FetchMeta)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	dedupCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the cache.* instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"cache.fetch.total",
		metric.WithDescription("Total number of cache fetches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"cache.fetch.errors",
		metric.WithDescription("Total number of failed cache fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"cache.fetch.duration_ms",
		metric.WithDescription("Cache fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dedupCount, err := meter.Int64Counter(
		"cache.dedup.total",
		metric.WithDescription("Revalidation triggers coalesced into an existing request"),
		metric.WithUnit("{trigger}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		dedupCount:   dedupCount,
		durationHist: durationHist,
	}, nil
}

func attrsFor(meta FetchMeta) metric.MeasurementOption {
	attrs := []attribute.KeyValue{attribute.String("cache.resource", meta.Resource)}
	if meta.Trigger != "" {
		attrs = append(attrs, attribute.String("cache.trigger", meta.Trigger))
	}
	return metric.WithAttributes(attrs...)
}

func (m *metricsImpl) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
	opt := attrsFor(meta)
	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordDedup(ctx context.Context, meta FetchMeta) {
	m.dedupCount.Add(ctx, 1, attrsFor(meta))
}

// NopMetrics records nothing.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(context.Context, FetchMeta, time.Duration, error) {}
func (NopMetrics) RecordDedup(context.Context, FetchMeta)                       {}
