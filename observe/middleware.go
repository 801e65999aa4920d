package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
)

// Middleware wraps a gateway with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a gateway as thread-safe as the one it wraps.
//   - Context: Propagates context through tracing spans.
//   - Errors: Results from the wrapped gateway are recorded and returned unchanged.
//   - Privacy: Sample values are never logged or attached to spans.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap returns a gateway that instruments every call made to gw.
func (m *Middleware) Wrap(gw gateway.Gateway) gateway.Gateway {
	return &instrumentedGateway{next: gw, mw: m}
}

type instrumentedGateway struct {
	next gateway.Gateway
	mw   *Middleware
}

func (g *instrumentedGateway) IsAvailable() bool {
	return g.next.IsAvailable()
}

func (g *instrumentedGateway) RequestAuthorization(ctx context.Context, metrics []metric.Metric) (gateway.Authorization, error) {
	meta := FetchMeta{Operation: OpAuthorize, CycleID: CycleIDFromContext(ctx)}
	ctx, span := g.mw.tracer.StartSpan(ctx, meta)
	start := time.Now()

	auth, err := g.next.RequestAuthorization(ctx, metrics)
	outcome := err
	if outcome == nil {
		outcome = auth.Err()
	}

	// A denial is recorded as a failed call but returned as a decision.
	g.mw.finish(ctx, span, meta, time.Since(start), outcome,
		Field{Key: "metrics.requested", Value: len(metrics)},
	)
	return auth, err
}

func (g *instrumentedGateway) FetchLatest(ctx context.Context, m metric.Metric) gateway.Result[float64] {
	return observeResult(ctx, g.mw, OpLatest, m, g.next.FetchLatest)
}

func (g *instrumentedGateway) FetchAggregateToday(ctx context.Context, m metric.Metric) gateway.Result[float64] {
	return observeResult(ctx, g.mw, OpAggregateToday, m, g.next.FetchAggregateToday)
}

func (g *instrumentedGateway) FetchCharacteristic(ctx context.Context, m metric.Metric) gateway.Result[gateway.Characteristic] {
	return observeResult(ctx, g.mw, OpCharacteristic, m, g.next.FetchCharacteristic)
}

func observeResult[T any](
	ctx context.Context,
	mw *Middleware,
	op string,
	m metric.Metric,
	fetch func(context.Context, metric.Metric) gateway.Result[T],
) gateway.Result[T] {
	meta := FetchMeta{Operation: op, Metric: m, CycleID: CycleIDFromContext(ctx)}
	ctx, span := mw.tracer.StartSpan(ctx, meta)
	start := time.Now()

	res := fetch(ctx, m)

	mw.finish(ctx, span, meta, time.Since(start), res.Err)
	return res
}

func (m *Middleware) finish(ctx context.Context, span trace.Span, meta FetchMeta, d time.Duration, err error, extra ...Field) {
	m.tracer.EndSpan(span, err)
	m.metrics.RecordFetch(ctx, meta, d, err)

	logger := m.logger.WithFetch(meta)
	fields := append([]Field{{Key: "duration_ms", Value: float64(d.Milliseconds())}}, extra...)

	switch {
	case err == nil:
		logger.Info(ctx, "health store call completed", fields...)
	case gateway.IsMetricLevel(err):
		fields = append(fields, Field{Key: "error", Value: err.Error()}, Field{Key: "error.kind", Value: errorKind(err)})
		logger.Warn(ctx, "health store call returned no data", fields...)
	default:
		fields = append(fields, Field{Key: "error", Value: err.Error()}, Field{Key: "error.kind", Value: errorKind(err)})
		logger.Error(ctx, "health store call failed", fields...)
	}
}

var _ gateway.Gateway = (*instrumentedGateway)(nil)
