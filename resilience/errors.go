package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is joined with the last error once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimited is returned when a call is refused by the rate limiter.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when a call outlives its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
