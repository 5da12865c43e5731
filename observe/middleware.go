package observe

import (
	"context"
	"time"
)

// FetchFunc is the signature of a fetch that Middleware wraps.
type FetchFunc func(ctx context.Context, meta FetchMeta) (any, error)

// Middleware wraps fetches with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap returns a FetchFunc safe for concurrent use.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	now     func() time.Time
}

// NewMiddleware creates a Middleware. Nil components become no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewTracer(nil)
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger, now: time.Now}
}

// Wrap wraps fn. A trigger recorded on ctx with ContextWithTrigger fills
// meta.Trigger when it is empty.
func (m *Middleware) Wrap(fn FetchFunc) FetchFunc {
	return func(ctx context.Context, meta FetchMeta) (any, error) {
		if meta.Trigger == "" {
			meta.Trigger = TriggerFromContext(ctx)
		}

		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := m.now()

		result, err := fn(ctx, meta)

		duration := m.now().Sub(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordFetch(ctx, meta, duration, err)

		fields := []Field{{Key: "duration_ms", Value: duration.Milliseconds()}}
		log := m.logger.WithFetch(meta)
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err})
			log.Warn(ctx, "fetch failed", fields...)
		} else {
			log.Debug(ctx, "fetch completed", fields...)
		}

		return result, err
	}
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
