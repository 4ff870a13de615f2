package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/folio-studio/folio/internal/platform/httpx"
	"github.com/folio-studio/folio/internal/shared"
)

// Guard protects every /admin and /api/admin request. The /admin/auth
// subtree is always reachable so members can sign in.
type Guard struct {
	Gate   Gate
	Tokens *TokenIssuer
	Logger *slog.Logger
}

// IsAdminPath reports whether path falls under the guarded prefixes.
func IsAdminPath(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/") || isAdminAPI(path)
}

// IsAuthPath reports whether path is part of the sign-in flow.
func IsAuthPath(path string) bool {
	return path == "/admin/auth" || strings.HasPrefix(path, "/admin/auth/")
}

func isAdminAPI(path string) bool {
	return path == "/api/admin" || strings.HasPrefix(path, "/api/admin/")
}

// Middleware runs once per request and passes non-admin paths through.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	protected := g.Gate.Protect(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !IsAdminPath(path) || IsAuthPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		if raw, ok := bearerToken(r); ok {
			if g.Tokens == nil {
				g.deny(w, r, "bearer tokens disabled")
				return
			}
			p, err := g.Tokens.Parse(raw)
			if err != nil {
				g.deny(w, r, "invalid bearer token")
				return
			}
			ctx := shared.ContextWithTokenAuth(shared.ContextWithPrincipal(r.Context(), p))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if isAdminAPI(path) {
			if ResolveStatus(r) != StatusAuthenticated {
				g.deny(w, r, "no session principal")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, reason string) {
	if g.Logger != nil {
		g.Logger.Info("admin access denied", slog.String("path", r.URL.Path), slog.String("reason", reason))
	}
	if isAdminAPI(r.URL.Path) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="folio"`)
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized", reason)
		return
	}
	http.Redirect(w, r, SignInURL(r.URL.RequestURI()), http.StatusSeeOther)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(header[7:])
	return raw, raw != ""
}
