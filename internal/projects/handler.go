package projects

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/assets"
	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/view"
)

// Handler serves the admin project pages.
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

// MountRoutes registers admin project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireManage(rbac.ResourceProjects))
		r.Get("/", h.list)
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.update)
		r.Post("/{id}/delete", h.delete)
		r.Post("/{id}/image", h.uploadImage)
	})
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		ListFilters: shared.ParseListFilters(q),
		Status:      Status(q.Get("status")),
		Category:    q.Get("category"),
	}
	if !filters.Status.Valid() {
		filters.Status = ""
	}
	items, pagination, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		h.render.Render(w, r, "pages/admin/projects/list.html", "Projects", map[string]any{
			"Errors": formErrors{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "pages/admin/projects/list.html", "Projects", map[string]any{
		"Projects": items,
		"Filters":  filters,
		"Pager":    view.NewPager(pagination, r.URL.Path, q),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, Project{Status: StatusDraft}, formErrors{}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := inputFromForm(r)
	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.renderFormError(w, r, projectFromInput(0, in), err)
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/projects/"+strconv.FormatInt(created.ID, 10)+"/edit", "success", "Project created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.notFoundOrError(w, r, err)
		return
	}
	h.renderForm(w, r, p, formErrors{}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := inputFromForm(r)
	if _, err := h.service.Update(r.Context(), id, in); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.notFoundOrError(w, r, err)
			return
		}
		h.renderFormError(w, r, projectFromInput(id, in), err)
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/projects", "success", "Project updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Warn("delete project", slog.Int64("id", id), slog.Any("error", err))
		h.render.RedirectWithFlash(w, r, "/admin/projects", "danger", shared.UserSafeMessage(err))
		return
	}
	h.render.RedirectWithFlash(w, r, "/admin/projects", "success", "Project deleted")
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	back := "/admin/projects/" + strconv.FormatInt(id, 10) + "/edit"
	r.Body = http.MaxBytesReader(w, r.Body, assets.MaxImageBytes+1<<20)
	file, _, err := r.FormFile("image")
	if err != nil {
		h.render.RedirectWithFlash(w, r, back, "danger", "Choose an image up to 5 MiB")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, assets.MaxImageBytes+1))
	if err != nil {
		h.render.RedirectWithFlash(w, r, back, "danger", "Could not read the upload")
		return
	}
	if _, err := h.service.UploadImage(r.Context(), id, content); err != nil {
		h.logger.Warn("upload project image", slog.Int64("id", id), slog.Any("error", err))
		h.render.RedirectWithFlash(w, r, back, "danger", shared.UserSafeMessage(err))
		return
	}
	h.render.RedirectWithFlash(w, r, back, "success", "Image uploaded")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, p Project, errs formErrors, status int) {
	title := "New project"
	if p.ID > 0 {
		title = "Edit " + p.Title
	}
	h.render.Render(w, r, "pages/admin/projects/form.html", title, map[string]any{
		"Project":  p,
		"Errors":   errs,
		"Statuses": []Status{StatusDraft, StatusPublished},
	}, status)
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, p Project, err error) {
	var verr *shared.ValidationError
	errs := formErrors{}
	status := http.StatusBadRequest
	switch {
	case errors.As(err, &verr):
		errs[verr.Field] = verr.Message
	case errors.Is(err, shared.ErrDuplicate):
		errs["slug"] = "slug is already used by another project"
		status = http.StatusConflict
	default:
		h.logger.Error("save project", slog.Any("error", err))
		errs["general"] = shared.UserSafeMessage(err)
		status = http.StatusInternalServerError
	}
	h.renderForm(w, r, p, errs, status)
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("load project", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func inputFromForm(r *http.Request) Input {
	return Input{
		Title:       r.PostFormValue("title"),
		Slug:        r.PostFormValue("slug"),
		Description: r.PostFormValue("description"),
		TechStack:   SplitTechStack(r.PostFormValue("tech_stack")),
		Category:    r.PostFormValue("category"),
		Status:      r.PostFormValue("status"),
		Featured:    r.PostFormValue("featured") == "on" || r.PostFormValue("featured") == "true",
		DemoURL:     r.PostFormValue("demo_url"),
		RepoURL:     r.PostFormValue("repo_url"),
	}
}

func projectFromInput(id int64, in Input) Project {
	return Project{
		ID:          id,
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
		TechStack:   in.TechStack,
		Category:    in.Category,
		Status:      Status(in.Status),
		Featured:    in.Featured,
		DemoURL:     in.DemoURL,
		RepoURL:     in.RepoURL,
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid project ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
