package members

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/roles"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/view"
)

// RoleLister supplies the team roles offered in the member form.
type RoleLister interface {
	ListRoles(ctx context.Context) ([]roles.Role, error)
}

// Handler manages member management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	roles   RoleLister
	render  view.Renderer
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roleLister RoleLister, render view.Renderer, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, roles: roleLister, render: render, rbac: mw}
}

// MountRoutes registers member routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireManage(rbac.ResourceMembers))
		r.Get("/", h.listMembers)
		r.Get("/new", h.showCreateMemberForm)
		r.Post("/", h.createMember)
		r.Get("/{id}/edit", h.showEditMemberForm)
		r.Post("/{id}/edit", h.updateMember)
		r.Post("/{id}/delete", h.deleteMember)
	})
}

type formErrors map[string]string

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := shared.ParseListFilters(q)
	members, pagination, err := h.service.ListMembers(r.Context(), filters)
	if err != nil {
		h.logger.Error("list members failed", slog.Any("error", err))
		h.render.Render(w, r, "pages/admin/members/list.html", "Members", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "pages/admin/members/list.html", "Members", map[string]any{
		"Members": members,
		"Search":  filters.Search,
		"Pager":   view.NewPager(pagination, r.URL.Path, q),
	}, http.StatusOK)
}

func (h *Handler) showCreateMemberForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, Member{AccessRole: rbac.RoleViewer, IsActive: true}, formErrors{}, http.StatusOK)
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	in, errs := inputFromForm(r)
	if len(errs) > 0 {
		h.renderForm(w, r, memberFromInput(0, in), errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateMember(r.Context(), in); err != nil {
		h.renderFormError(w, r, memberFromInput(0, in), err)
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/members", "success", "Member created")
}

func (h *Handler) showEditMemberForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	m, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, r, err)
		return
	}
	h.renderForm(w, r, m, formErrors{}, http.StatusOK)
}

func (h *Handler) updateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, errs := inputFromForm(r)
	if len(errs) > 0 {
		h.renderForm(w, r, memberFromInput(id, in), errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.UpdateMember(r.Context(), id, in); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.notFoundOrError(w, r, err)
			return
		}
		h.renderFormError(w, r, memberFromInput(id, in), err)
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/members", "success", "Member updated")
}

func (h *Handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteMember(r.Context(), id); err != nil {
		h.logger.Warn("delete member failed", slog.Int64("id", id), slog.Any("error", err))
		h.render.RedirectWithFlash(w, r, "/admin/members", "danger", shared.UserSafeMessage(err))
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/members", "success", "Member deleted")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, m Member, errs formErrors, status int) {
	title := "New member"
	if m.ID > 0 {
		title = "Edit member"
	}
	teamRoles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		h.logger.Warn("list roles for member form", slog.Any("error", err))
	}
	var selected int64
	if m.RoleID != nil {
		selected = *m.RoleID
	}
	h.render.Render(w, r, "pages/admin/members/form.html", title, map[string]any{
		"Member":       m,
		"Errors":       errs,
		"Roles":        teamRoles,
		"SelectedRole": selected,
		"AccessRoles":  rbac.Roles(),
	}, status)
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, m Member, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderForm(w, r, m, formErrors{verr.Field: verr.Message}, http.StatusBadRequest)
	case errors.Is(err, ErrEmailTaken):
		h.renderForm(w, r, m, formErrors{"email": "email is already registered"}, http.StatusConflict)
	default:
		h.logger.Error("save member failed", slog.Any("error", err))
		h.renderForm(w, r, m, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusInternalServerError)
	}
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("load member failed", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func inputFromForm(r *http.Request) (Input, formErrors) {
	errs := formErrors{}
	if err := r.ParseForm(); err != nil {
		errs["general"] = "invalid form submission"
		return Input{}, errs
	}
	in := Input{
		Email:      r.PostFormValue("email"),
		Name:       r.PostFormValue("name"),
		Title:      r.PostFormValue("title"),
		Bio:        r.PostFormValue("bio"),
		AvatarURL:  r.PostFormValue("avatar_url"),
		AccessRole: r.PostFormValue("access_role"),
		Password:   r.PostFormValue("password"),
		IsActive:   r.PostFormValue("is_active") == "on" || r.PostFormValue("is_active") == "true",
	}
	if raw := strings.TrimSpace(r.PostFormValue("role_id")); raw != "" {
		roleID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs["role_id"] = "unknown role"
		} else {
			in.RoleID = &roleID
		}
	}
	return in, errs
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid member ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
