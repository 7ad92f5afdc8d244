package domain

import "context"

type identityKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// UserFromContext returns the user attached by the auth guard, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(identityKey{}).(*User)
	return u, ok && u != nil
}
