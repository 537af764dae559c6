package auth

import (
	"context"
)

type ctxKey string

const (
	userKey ctxKey = "userClaims"
)

// WithClaims stores the verified principal for the rest of the request.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, userKey, c)
}

func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(userKey).(Claims)
	return c, ok
}

func Subject(ctx context.Context) string {
	c, _ := FromContext(ctx)
	return c.ID
}
