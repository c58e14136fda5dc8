package shared

import "context"

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

// ActorFromContext returns the user name of the caller, or "system".
func ActorFromContext(ctx context.Context) string {
	if sess := SessionFromContext(ctx); sess != nil && sess.UserName != "" {
		return sess.UserName
	}
	return "system"
}
