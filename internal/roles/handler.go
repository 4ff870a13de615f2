package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/view"
)

// Handler manages role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	render  view.Renderer
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, render view.Renderer, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, render: render, rbac: mw}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireManage(rbac.ResourceRoles))
		r.Get("/", h.listRoles)
		r.Get("/new", h.showCreateRoleForm)
		r.Post("/", h.createRole)
		r.Get("/{id}/edit", h.showEditRoleForm)
		r.Post("/{id}/edit", h.updateRole)
		r.Post("/{id}/delete", h.deleteRole)
	})
}

type formErrors map[string]string

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		h.render.Render(w, r, "pages/admin/roles/list.html", "Roles", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "pages/admin/roles/list.html", "Roles", map[string]any{"Roles": roles}, http.StatusOK)
}

func (h *Handler) showCreateRoleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, Role{}, formErrors{}, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	in, errs := inputFromForm(r)
	if len(errs) > 0 {
		h.renderForm(w, r, roleFromInput(0, in), errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateRole(r.Context(), in); err != nil {
		h.renderFormError(w, r, roleFromInput(0, in), err)
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/roles", "success", "Role created")
}

func (h *Handler) showEditRoleForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, r, err)
		return
	}
	h.renderForm(w, r, role, formErrors{}, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, errs := inputFromForm(r)
	if len(errs) > 0 {
		h.renderForm(w, r, roleFromInput(id, in), errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.UpdateRole(r.Context(), id, in); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.notFoundOrError(w, r, err)
			return
		}
		h.renderFormError(w, r, roleFromInput(id, in), err)
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/roles", "success", "Role updated")
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.logger.Warn("delete role failed", slog.Int64("id", id), slog.Any("error", err))
		h.render.RedirectWithFlash(w, r, "/admin/roles", "danger", shared.UserSafeMessage(err))
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/roles", "success", "Role deleted")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, role Role, errs formErrors, status int) {
	title := "New role"
	if role.ID > 0 {
		title = "Edit role"
	}
	h.render.Render(w, r, "pages/admin/roles/form.html", title, map[string]any{"Role": role, "Errors": errs}, status)
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, role Role, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderForm(w, r, role, formErrors{verr.Field: verr.Message}, http.StatusBadRequest)
	case errors.Is(err, ErrNameTaken):
		h.renderForm(w, r, role, formErrors{"name": "a role with this name already exists"}, http.StatusConflict)
	default:
		h.logger.Error("save role failed", slog.Any("error", err))
		h.renderForm(w, r, role, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusInternalServerError)
	}
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("load role failed", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func inputFromForm(r *http.Request) (Input, formErrors) {
	errs := formErrors{}
	if err := r.ParseForm(); err != nil {
		errs["general"] = "invalid form submission"
		return Input{}, errs
	}
	in := Input{Name: r.PostFormValue("name"), Description: r.PostFormValue("description")}
	if raw := strings.TrimSpace(r.PostFormValue("sort_order")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["sort_order"] = "sort order must be a whole number"
		}
		in.SortOrder = n
	}
	return in, errs
}

func roleFromInput(id int64, in Input) Role {
	return Role{ID: id, Name: in.Name, Description: in.Description, SortOrder: in.SortOrder}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid role ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
