package shared

import "context"

type sessionContextKey struct{}

type principalContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithPrincipal stores the verified principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal verified for this request. It
// falls back to the session principal when no explicit one was attached.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalContextKey{}).(*Principal); ok && p != nil {
		return p
	}
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.Principal()
	}
	return nil
}

type tokenAuthContextKey struct{}

// ContextWithTokenAuth marks the request as authenticated by bearer token.
func ContextWithTokenAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, tokenAuthContextKey{}, true)
}

// TokenAuthenticated reports whether the principal came from a bearer token.
func TokenAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(tokenAuthContextKey{}).(bool)
	return v
}
