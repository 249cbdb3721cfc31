package models

import (
	"context"
)

type userContextKey struct{}

// SetUserContext returns a copy of ctx carrying the resolved user.
func SetUserContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext returns the user stored by SetUserContext, or nil.
func GetUserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}
