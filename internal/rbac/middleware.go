package rbac

import (
	"log/slog"
	"net/http"

	"github.com/folio-studio/folio/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current principal has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return m.require("require any", func(role Role) bool { return HasAny(role, perms...) })
}

// RequireAll ensures the current principal has all required permissions.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return m.require("require all", func(role Role) bool { return HasAll(role, perms...) })
}

// RequireManage ensures the current principal may manage resource.
func (m Middleware) RequireManage(resource Resource) func(http.Handler) http.Handler {
	return m.require("require manage", func(role Role) bool { return CanManage(role, resource) })
}

func (m Middleware) require(op string, allowed func(Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := CurrentRole(r)
			if !ok || !allowed(role) {
				if m.Logger != nil {
					m.Logger.Warn("rbac "+op+" denied", slog.String("path", r.URL.Path), slog.String("role", string(role)))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentRole resolves the role of the principal attached to the request.
func CurrentRole(r *http.Request) (Role, bool) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		return "", false
	}
	return ParseRole(p.Role)
}

// Can reports whether the principal may use perm. Nil principals never can.
func Can(p *shared.Principal, perm Permission) bool {
	if p == nil {
		return false
	}
	role, ok := ParseRole(p.Role)
	return ok && HasPermission(role, perm)
}
