package resilience

import (
	"context"
	"time"
)

// Config is the file-level resilience configuration. A zero field disables
// the corresponding pattern.
type Config struct {
	// Timeout bounds each gateway call.
	Timeout time.Duration `yaml:"timeout"`

	// MaxAttempts enables retry when greater than 1.
	MaxAttempts int `yaml:"max_attempts"`

	// Rate is the allowed gateway calls per second.
	Rate float64 `yaml:"rate"`

	// Burst is the rate limiter bucket size.
	// Default: 10 when Rate is set
	Burst int `yaml:"burst"`

	// CircuitThreshold opens the circuit after this many consecutive store failures.
	CircuitThreshold int `yaml:"circuit_threshold"`

	// CircuitReset is how long the circuit stays open.
	// Default: 30s when CircuitThreshold is set
	CircuitReset time.Duration `yaml:"circuit_reset"`
}

// Enabled reports whether any pattern is configured.
func (c Config) Enabled() bool {
	return c.Timeout > 0 || c.MaxAttempts > 1 || c.Rate > 0 || c.CircuitThreshold > 0
}

// Executor composes multiple resilience patterns.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewExecutorFromConfig builds an Executor with the patterns cfg enables.
func NewExecutorFromConfig(cfg Config) *Executor {
	var opts []ExecutorOption
	if cfg.Rate > 0 {
		opts = append(opts, WithRateLimiter(NewRateLimiter(RateLimiterConfig{
			Rate:        cfg.Rate,
			Burst:       cfg.Burst,
			WaitOnLimit: true,
		})))
	}
	if cfg.CircuitThreshold > 0 {
		opts = append(opts, WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{
			MaxFailures:  cfg.CircuitThreshold,
			ResetTimeout: cfg.CircuitReset,
		})))
	}
	if cfg.MaxAttempts > 1 {
		opts = append(opts, WithRetry(NewRetry(RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			Jitter:      true,
		})))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	return NewExecutor(opts...)
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithTimeout adds a per-attempt timeout to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds timeout with custom config to the executor.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// Execute runs the operation through all configured resilience patterns.
//
// The execution order is:
// 1. Rate Limiter (if configured) - limits call rate
// 2. Circuit Breaker (if configured) - stops calling a failing store
// 3. Retry (if configured) - retries transient failures
// 4. Timeout (if configured) - bounds each attempt
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
