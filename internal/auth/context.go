package auth

import "context"

type contextKey string

const actorKey contextKey = "actor_id"

// WithActorID attaches the acting operator to the context. The surrounding
// transport layer (or the caller embedding this service) is expected to set it.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

// GetActorID returns the acting operator, or "" when unauthenticated
// (system-originated transitions).
func GetActorID(ctx context.Context) string {
	if val, ok := ctx.Value(actorKey).(string); ok {
		return val
	}
	return ""
}
