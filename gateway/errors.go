package gateway

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/healthaccess/metric"
)

// Cycle-level errors.
var (
	// ErrUnavailable indicates the platform has no health store.
	ErrUnavailable = errors.New("gateway: health store not available")

	// ErrAuthorizationDenied indicates the user or system declined access.
	ErrAuthorizationDenied = errors.New("gateway: authorization denied")
)

// Metric-level errors.
var (
	// ErrNoRecord indicates the store holds no matching sample.
	ErrNoRecord = errors.New("gateway: no record")

	// ErrTypeUnavailable indicates the platform cannot represent the metric.
	ErrTypeUnavailable = errors.New("gateway: data type not available")

	// ErrNotAuthorized indicates the metric was never granted.
	ErrNotAuthorized = errors.New("gateway: metric not authorized")

	// ErrWrongKind indicates a fetch operation that does not serve the metric's kind.
	ErrWrongKind = errors.New("gateway: wrong fetch operation for metric")
)

// DeniedError describes a declined authorization request.
type DeniedError struct {
	// Reason explains why access was declined.
	Reason string
}

// Error returns the error message.
func (e *DeniedError) Error() string {
	if e.Reason == "" {
		return ErrAuthorizationDenied.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAuthorizationDenied, e.Reason)
}

// Is reports whether this error matches the target.
func (e *DeniedError) Is(target error) bool {
	return target == ErrAuthorizationDenied
}

// MetricError ties a metric-level failure to its metric.
type MetricError struct {
	Metric metric.Metric
	Err    error
}

// Error returns the error message.
func (e *MetricError) Error() string {
	return fmt.Sprintf("%s: %v", e.Metric.Label(), e.Err)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *MetricError) Unwrap() error {
	return e.Err
}

// IsMetricLevel reports whether err is scoped to a single metric. Such errors
// are final for that metric and are not worth retrying.
func IsMetricLevel(err error) bool {
	return errors.Is(err, ErrNoRecord) ||
		errors.Is(err, ErrTypeUnavailable) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrWrongKind)
}

// Store errors.
var (
	// ErrInvalidSample indicates a sample that cannot be stored.
	ErrInvalidSample = errors.New("gateway: invalid sample")

	// ErrStoreClosed indicates use of a closed store.
	ErrStoreClosed = errors.New("gateway: store closed")
)
