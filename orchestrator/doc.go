// Package orchestrator runs authorization and fetch cycles against a
// gateway.Gateway.
//
// A cycle moves through Idle, Authorizing, then AuthorizationFailed or
// Authorized, then Fetching and Completed. Authorize asks the gateway for
// read access to a permission set; FetchAll fans out one fetch per metric
// and yields readings in completion order:
//
//	o, err := orchestrator.New(gw, orchestrator.WithConfig(orchestrator.Config{MaxConcurrent: 4}))
//	if _, err := o.Authorize(ctx, set); err != nil {
//	    return err
//	}
//	for m, r := range o.FetchAll(ctx, set) {
//	    fmt.Println(m.Label(), r)
//	}
//
// The sequence returned by FetchAll is lazy and single-use. Once the caller
// breaks out of the loop or cancels ctx, no further readings are delivered.
package orchestrator
