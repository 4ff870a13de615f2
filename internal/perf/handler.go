package perf

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/platform/httpx"
	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/view"
)

const rendersPath = "/admin/debug/renders"

// Handler serves the render log pages and JSON endpoint.
type Handler struct {
	logger  *slog.Logger
	tracker *Tracker
	render  view.Renderer
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, tracker *Tracker, render view.Renderer, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, tracker: tracker, render: render, rbac: mw}
}

// MountRoutes registers the admin pages under /admin/debug/renders.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireManage(rbac.ResourceDebug))
		r.Get("/", h.show)
		r.Post("/start", h.start)
		r.Post("/stop", h.stop)
		r.Post("/clear", h.clear)
	})
}

// MountAPI registers GET under /api/admin/debug/renders.
func (h *Handler) MountAPI(r chi.Router) {
	r.With(h.rbac.RequireManage(rbac.ResourceDebug)).Get("/", h.json)
}

// Snapshot is the JSON view of the tracker.
type Snapshot struct {
	Enabled  bool    `json:"enabled"`
	Capacity int     `json:"capacity"`
	Entries  []Entry `json:"entries"`
	Summary  []Stat  `json:"summary"`
}

func (h *Handler) snapshot() Snapshot {
	return Snapshot{
		Enabled:  h.tracker.Enabled(),
		Capacity: h.tracker.Capacity(),
		Entries:  h.tracker.Entries(),
		Summary:  h.tracker.Summary(),
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()
	// newest first on the page
	entries := make([]Entry, len(snap.Entries))
	for i, e := range snap.Entries {
		entries[len(entries)-1-i] = e
	}
	h.render.Render(w, r, "pages/admin/debug/renders.html", "Render log", map[string]any{
		"Enabled":  snap.Enabled,
		"Capacity": snap.Capacity,
		"Entries":  entries,
		"Summary":  snap.Summary,
	}, http.StatusOK)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	h.tracker.Start()
	h.logger.Info("render tracking started")
	h.render.RedirectWithFlash(w, r, rendersPath, "success", "Render tracking started")
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	h.tracker.Stop()
	h.logger.Info("render tracking stopped")
	h.render.RedirectWithFlash(w, r, rendersPath, "success", "Render tracking stopped")
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	h.tracker.Clear()
	h.render.RedirectWithFlash(w, r, rendersPath, "success", "Render log cleared")
}

func (h *Handler) json(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, h.snapshot())
}
