package auth

import "context"

type userKey struct{}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the user stored in ctx, or the anonymous user.
func UserFrom(ctx context.Context) User {
	if ctx == nil {
		return Anonymous()
	}
	if user, ok := ctx.Value(userKey{}).(User); ok {
		return user
	}
	return Anonymous()
}
