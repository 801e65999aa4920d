// Package resilience guards calls into a health store.
//
// A local store can be slow, locked by another writer, or gone entirely.
// The patterns here bound that damage without changing what a caller sees
// for a single metric: a failure introduced by resilience becomes that
// metric's error and leaves the rest of the cycle alone.
//
// # Patterns
//
//   - Circuit Breaker: stops calling a store after consecutive store
//     failures. Metric-level errors such as gateway.ErrNoRecord never count.
//
//   - Retry: retries transient failures with exponential, linear or
//     constant backoff. Metric-level errors and cancellation are final.
//
//   - Rate Limiter: bounds the rate of store calls using a token bucket.
//
//   - Timeout: bounds each attempt, even when the store ignores ctx.
//
// # Usage
//
// Patterns compose through an Executor, usually built from Config:
//
//	exec := resilience.NewExecutorFromConfig(resilience.Config{
//	    Timeout:          2 * time.Second,
//	    MaxAttempts:      3,
//	    Rate:             50,
//	    CircuitThreshold: 5,
//	})
//	gw = resilience.WrapGateway(gw, exec)
//
// WrapGateway returns a gateway.Gateway, so it stacks with other decorators
// such as the observe middleware.
package resilience
