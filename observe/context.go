package observe

import "context"

type contextKey int

const cycleIDKey contextKey = iota

// WithCycleID returns a new context carrying the authorization cycle ID.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFromContext returns the cycle ID, or "" if none is attached.
func CycleIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(cycleIDKey).(string)
	return id
}
