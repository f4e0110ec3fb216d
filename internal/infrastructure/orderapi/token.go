package orderapi

import (
	"context"
	"errors"
)

// ErrNoToken is returned when no bearer token is available for a call
var ErrNoToken = errors.New("orderapi: no bearer token available")

// TokenSource supplies the bearer token attached to every backend call.
// Tokens are owned by the session layer; this package never refreshes them.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource always returns the same service token
type StaticTokenSource string

// Token implements TokenSource
func (s StaticTokenSource) Token(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

type bearerTokenKey struct{}

// WithBearerToken attaches the caller's bearer token to ctx
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

// BearerTokenFromContext returns the token set by WithBearerToken
func BearerTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}

// ContextTokenSource forwards the admin's own token from the request
// context and falls back to a service token for background work
type ContextTokenSource struct {
	Fallback TokenSource
}

// Token implements TokenSource
func (s ContextTokenSource) Token(ctx context.Context) (string, error) {
	if token := BearerTokenFromContext(ctx); token != "" {
		return token, nil
	}
	if s.Fallback == nil {
		return "", ErrNoToken
	}
	return s.Fallback.Token(ctx)
}
