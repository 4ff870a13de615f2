package projects

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/view"
)

// PublicHandler serves the published portfolio.
type PublicHandler struct {
	logger  *slog.Logger
	service *Service
	render  view.Renderer
}

// NewPublicHandler builds PublicHandler instance.
func NewPublicHandler(logger *slog.Logger, service *Service, render view.Renderer) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{logger: logger, service: service, render: render}
}

// MountRoutes registers /projects routes.
func (h *PublicHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{slug}", h.show)
}

func (h *PublicHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{ListFilters: shared.ParseListFilters(q), Category: q.Get("category")}
	filters.PerPage = 12
	items, pagination, err := h.service.ListPublished(r.Context(), filters)
	if err != nil {
		h.logger.Error("list published projects", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.Warn("list categories", slog.Any("error", err))
	}
	h.render.Render(w, r, "pages/projects/list.html", "Projects", map[string]any{
		"Projects":   items,
		"Categories": categories,
		"Category":   filters.Category,
		"Search":     filters.Search,
		"Pager":      view.NewPager(pagination, r.URL.Path, q),
	}, http.StatusOK)
}

func (h *PublicHandler) show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPublished(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.render.Render(w, r, "pages/not_found.html", "Not found", nil, http.StatusNotFound)
			return
		}
		h.logger.Error("load project", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "pages/projects/show.html", p.Title, map[string]any{"Project": p}, http.StatusOK)
}
