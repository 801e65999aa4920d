package orchestrator

import "errors"

var (
	// ErrEmptyRequest indicates Authorize was called with no metrics selected.
	ErrEmptyRequest = errors.New("orchestrator: empty permission request")

	// ErrNilGateway indicates New was called without a gateway.
	ErrNilGateway = errors.New("orchestrator: gateway is nil")

	// ErrInvalidConcurrency indicates a negative Config.MaxConcurrent.
	ErrInvalidConcurrency = errors.New("orchestrator: max concurrent must not be negative")
)
