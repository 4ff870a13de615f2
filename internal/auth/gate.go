package auth

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
)

// Status is the session state observed for a request.
type Status int

// Session states.
const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Decision is the outcome of gating a protected page.
type Decision int

// Gate outcomes.
const (
	DecisionPlaceholder Decision = iota
	DecisionRedirect
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionPlaceholder:
		return "placeholder"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decide maps a session status to a single-pass gate decision. Loading always
// yields the placeholder; the decision is deferred until the session resolves.
func Decide(status Status, required bool) Decision {
	switch status {
	case StatusLoading:
		return DecisionPlaceholder
	case StatusUnauthenticated:
		if required {
			return DecisionRedirect
		}
	}
	return DecisionRender
}

// ResolveStatus reports the session status of r. A request without a
// resolved session, because the store was unavailable, is still loading.
func ResolveStatus(r *http.Request) Status {
	ctx := r.Context()
	p := shared.PrincipalFromContext(ctx)
	if p.Valid() {
		if _, ok := rbac.ParseRole(p.Role); ok {
			return StatusAuthenticated
		}
		return StatusUnauthenticated
	}
	if shared.SessionFromContext(ctx) == nil {
		return StatusLoading
	}
	return StatusUnauthenticated
}

// Gate applies Decide to protected pages.
type Gate struct {
	Logger *slog.Logger
	// Placeholder renders the loading page. When nil a bare 503 is written.
	Placeholder http.HandlerFunc
}

// Protect renders next only once the request's session is authenticated.
func (g Gate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := ResolveStatus(r)
		switch Decide(status, true) {
		case DecisionPlaceholder:
			w.Header().Set("Retry-After", "2")
			w.Header().Set("Cache-Control", "no-store")
			if g.Placeholder != nil {
				g.Placeholder(w, r)
				return
			}
			http.Error(w, "Session is loading", http.StatusServiceUnavailable)
		case DecisionRedirect:
			if g.Logger != nil {
				g.Logger.Info("admin access denied", slog.String("path", r.URL.Path), slog.String("reason", "no session principal"))
			}
			http.Redirect(w, r, SignInURL(r.URL.RequestURI()), http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// SignInURL builds the sign-in location carrying the callback path.
func SignInURL(callback string) string {
	if callback = SafeReturnPath(callback); callback == "" {
		return SignInPath
	}
	return SignInPath + "?" + url.Values{CallbackParam: {callback}}.Encode()
}
