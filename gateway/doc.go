// Package gateway defines the boundary between the fetch orchestrator and a
// platform health data store.
//
// The Gateway interface is the only surface the orchestrator calls: an
// availability check, a one-shot authorization request, and three typed
// fetch operations (latest sample, today's aggregate, characteristic). Every
// fetch returns a Result whose Err distinguishes a real zero from a missing
// record.
//
// # Local Gateway
//
// Local implements Gateway over a SampleStore. Two stores are provided:
//
//	// In-memory samples, mostly for tests and demos
//	store := gateway.NewMemoryStore()
//	store.Add(ctx, gateway.Sample{Metric: metric.Steps, Value: 4231, Start: t0, End: t1})
//
//	// SQLite-backed samples (pure Go driver)
//	store, err := gateway.OpenSQLiteStore("health.db")
//
//	gw := gateway.NewLocal(store, gateway.LocalConfig{})
//
// # Errors
//
// Metric-level failures are reported as Result.Err and never abort sibling
// fetches:
//
//	res := gw.FetchAggregateToday(ctx, metric.Steps)
//	switch {
//	case res.OK():
//	    fmt.Println(res.Value, res.Unit)
//	case errors.Is(res.Err, gateway.ErrNoRecord):
//	    fmt.Println("no steps logged today")
//	}
package gateway
