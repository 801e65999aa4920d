// Package observe provides observability primitives for health metric fetches.
//
// It is a pure instrumentation library: no fetching, no storage, no I/O beyond
// exporter setup. Consumers wrap a gateway.Gateway with a Middleware so every
// authorization request and metric fetch produces a span, counters, a duration
// histogram and one structured log line:
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "healthaccess",
//	    Tracing:     observe.TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1},
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//	mw, err := observe.MiddlewareFromObserver(obs)
//	gw = mw.Wrap(gw)
//
// Health values are never written to logs: fields named "value", "quantity"
// or "birth_date" are redacted like credentials.
package observe
