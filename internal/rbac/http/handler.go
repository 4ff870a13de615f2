package rbachttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/view"
)

// Handler renders the role × permission matrix.
type Handler struct {
	render view.Renderer
	rbac   rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(render view.Renderer, mw rbac.Middleware) *Handler {
	return &Handler{render: render, rbac: mw}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermViewDashboard))
		r.Get("/", h.matrix)
	})
}

type matrixPage struct {
	Roles   []rbac.Role
	Rows    []rbac.MatrixRow
	Current rbac.Role
	Granted []rbac.Permission
}

func (h *Handler) matrix(w http.ResponseWriter, r *http.Request) {
	current, _ := rbac.CurrentRole(r)
	data := matrixPage{
		Roles:   rbac.Roles(),
		Rows:    rbac.Matrix(),
		Current: current,
		Granted: rbac.PermissionsFor(current),
	}
	h.render.Render(w, r, "pages/admin/permissions.html", "Permissions", data, http.StatusOK)
}
