package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/healthaccess/gateway"
)

// Metric instrument names.
const (
	MetricFetchTotal    = "healthaccess.fetch.total"
	MetricFetchErrors   = "healthaccess.fetch.errors"
	MetricFetchDuration = "healthaccess.fetch.duration_ms"
)

// Metrics records gateway call metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records a gateway call with duration and error status.
	RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		MetricFetchTotal,
		metric.WithDescription("Total number of health store calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricFetchErrors,
		metric.WithDescription("Total number of failed health store calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricFetchDuration,
		metric.WithDescription("Health store call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordFetch records metrics for one gateway call.
func (m *metricsImpl) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("fetch.op", meta.Operation),
	}
	if meta.Metric.Valid() {
		attrs = append(attrs, attribute.String("metric", meta.Metric.String()))
	}

	// Recording must not be dropped because the caller's context was canceled.
	ctx = context.WithoutCancel(ctx)

	m.totalCount.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil {
		errAttrs := append(attrs, attribute.String("error.kind", errorKind(err)))
		m.errorCount.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// errorKind classifies err into a low-cardinality label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, gateway.ErrNoRecord):
		return "no_record"
	case errors.Is(err, gateway.ErrTypeUnavailable):
		return "type_unavailable"
	case errors.Is(err, gateway.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, gateway.ErrWrongKind):
		return "wrong_kind"
	case errors.Is(err, gateway.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, gateway.ErrAuthorizationDenied):
		return "denied"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return "other"
	}
}

type noopMetrics struct{}

func (m *noopMetrics) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
}
