package domain

import "context"

type callerTokenKey struct{}

// WithCallerToken attaches the bearer token of the caller. Upstream calls
// and cache lookups made with the returned context act as that caller.
func WithCallerToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, callerTokenKey{}, token)
}

// CallerToken returns the caller's bearer token, if any.
func CallerToken(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(callerTokenKey{}).(string)
	return t, ok && t != ""
}
