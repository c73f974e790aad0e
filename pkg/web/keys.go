package web

import "context"

type requestIDKey struct{}
type sessionTokenKey struct{}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// WithSessionToken adds the visitor's session token to the context.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey{}, token)
}

// GetSessionToken retrieves the visitor's session token from the context.
func GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenKey{}).(string)
	return token, ok
}
