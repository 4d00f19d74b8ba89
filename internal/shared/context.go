package shared

import (
	"context"
	"strconv"
)

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// UserIDFromContext returns the numeric id of the signed-in user.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	sess := SessionFromContext(ctx)
	if !sess.Authenticated() {
		return 0, false
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
