package observe

import (
	"github.com/jonwraymond/healthaccess/metric"
)

// Gateway operations, used as FetchMeta.Operation.
const (
	OpAuthorize      = "authorize"
	OpLatest         = "fetch_latest"
	OpAggregateToday = "fetch_aggregate_today"
	OpCharacteristic = "fetch_characteristic"
)

// FetchMeta describes one gateway call for telemetry purposes.
type FetchMeta struct {
	Operation string        // One of the Op constants (required)
	Metric    metric.Metric // Fetched metric; zero for OpAuthorize
	CycleID   string        // Authorization cycle (optional)
}

// SpanName returns the deterministic span name for this call.
// Format: healthaccess.<operation>.<metric> or healthaccess.<operation>
func (m FetchMeta) SpanName() string {
	if m.Metric.Valid() {
		return "healthaccess." + m.Operation + "." + m.Metric.String()
	}
	return "healthaccess." + m.Operation
}

// Validate checks the metadata is complete.
func (m FetchMeta) Validate() error {
	if m.Operation == "" {
		return ErrMissingOperation
	}
	if m.Operation != OpAuthorize && !m.Metric.Valid() {
		return ErrInvalidMetric
	}
	return nil
}
