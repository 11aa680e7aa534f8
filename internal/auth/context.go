package auth

import (
	"context"
)

type ctxKey string

const userKey ctxKey = "userClaims"

// Claims is the authenticated operator attached to a request. A single
// role name, not a set.
type Claims struct {
	Subject string
	Role    string
	JWTID   string
}

func (c Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, userKey, c)
}

func FromContext(ctx context.Context) Claims {
	if v, ok := ctx.Value(userKey).(Claims); ok {
		return v
	}
	return Claims{}
}

func Subject(ctx context.Context) string {
	return FromContext(ctx).Subject
}
