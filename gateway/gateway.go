package gateway

import (
	"context"

	"github.com/jonwraymond/healthaccess/metric"
)

// Gateway is the capability interface to a platform health data store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: fetches must honor cancellation and report ctx.Err() as Result.Err.
// - Errors: metric-level failures are returned in Result.Err, never as a zero value.
type Gateway interface {
	// IsAvailable reports whether the platform has a health store at all.
	IsAvailable() bool

	// RequestAuthorization asks for read access to metrics. Callers must
	// pass a non-empty slice. A returned error means the request itself
	// could not be made; a decision is reported in the Authorization.
	RequestAuthorization(ctx context.Context, metrics []metric.Metric) (Authorization, error)

	// FetchLatest returns the most recent sample of a point metric.
	FetchLatest(ctx context.Context, m metric.Metric) Result[float64]

	// FetchAggregateToday sums a cumulative metric since local midnight.
	FetchAggregateToday(ctx context.Context, m metric.Metric) Result[float64]

	// FetchCharacteristic reads a characteristic metric.
	FetchCharacteristic(ctx context.Context, m metric.Metric) Result[Characteristic]
}

// Result is the outcome of a single metric fetch.
// Err is nil on success; Value is meaningful only then.
type Result[T any] struct {
	Value T
	Unit  metric.Unit
	Err   error
}

// Succeed creates a successful result.
func Succeed[T any](value T, unit metric.Unit) Result[T] {
	return Result[T]{Value: value, Unit: unit}
}

// Fail creates a failed result.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the fetch succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// AuthStatus is the decision reached by an authorization request.
type AuthStatus int

const (
	// AuthGranted indicates read access was granted.
	AuthGranted AuthStatus = iota + 1
	// AuthDenied indicates the user or system declined access.
	AuthDenied
	// AuthUnavailable indicates the platform has no health store.
	AuthUnavailable
)

// String returns the string representation of the status.
func (s AuthStatus) String() string {
	switch s {
	case AuthGranted:
		return "granted"
	case AuthDenied:
		return "denied"
	case AuthUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Authorization is the outcome of RequestAuthorization.
type Authorization struct {
	Status AuthStatus
	Reason string
}

// Granted creates a granted outcome.
func Granted() Authorization {
	return Authorization{Status: AuthGranted}
}

// Denied creates a denied outcome.
func Denied(reason string) Authorization {
	return Authorization{Status: AuthDenied, Reason: reason}
}

// Unavailable creates an unavailable outcome.
func Unavailable() Authorization {
	return Authorization{Status: AuthUnavailable, Reason: ErrUnavailable.Error()}
}

// Err converts a non-granted outcome into its cycle-level error.
func (a Authorization) Err() error {
	switch a.Status {
	case AuthGranted:
		return nil
	case AuthUnavailable:
		return ErrUnavailable
	default:
		return &DeniedError{Reason: a.Reason}
	}
}
