package domain

import "context"

type contextKey string

const sessionIDKey contextKey = "sessionID"

// WithSessionID binds a browser session id to ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext returns the browser session id bound to ctx, or "".
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}
