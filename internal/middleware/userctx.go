package middleware

import "context"

type userKey struct{}

// UserCtx is the authenticated caller of a request.
type UserCtx struct {
	UserID    int64
	Username  string
	SessionID string
}

func WithUser(ctx context.Context, u UserCtx) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromCtx returns the caller; ok is false on routes without Auth.
func FromCtx(ctx context.Context) (UserCtx, bool) {
	u, ok := ctx.Value(userKey{}).(UserCtx)
	return u, ok
}
