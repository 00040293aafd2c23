package utils

import (
	"context"
)

type contextKey string

const (
	TokenKey contextKey = "token"
)

// GetTokenFromContext returns the caller's bearer token, set by the auth
// middleware. The booking backend validates it; this service only forwards it.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	tokenVal := ctx.Value(TokenKey)
	if tokenVal == nil {
		return "", false
	}

	token, ok := tokenVal.(string)
	return token, ok
}

// SetTokenContext stores the bearer token in the context
func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
