// Package identity carries the verified caller through context.Context.
package identity

import "context"

type ctxKey struct{}

// Caller is the authenticated principal behind a request.
type Caller struct {
	UserID string
	Email  string
	Name   string
}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the caller attached by the auth middleware, if any.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	if !ok || c.UserID == "" {
		return Caller{}, false
	}
	return c, true
}

// ActorID returns the caller's user id or "anonymous".
func ActorID(ctx context.Context) string {
	if c, ok := FromContext(ctx); ok {
		return c.UserID
	}
	return "anonymous"
}
