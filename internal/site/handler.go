// Package site serves the public landing page and health endpoint.
package site

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/platform/httpx"
	"github.com/folio-studio/folio/internal/projects"
	"github.com/folio-studio/folio/internal/view"
)

const (
	featuredLimit = 6
	checkTimeout  = 2 * time.Second
)

// FeaturedSource lists featured published projects.
type FeaturedSource interface {
	Featured(ctx context.Context, limit int) ([]projects.Project, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler renders the home page and reports health.
type Handler struct {
	logger   *slog.Logger
	featured FeaturedSource
	render   view.Renderer
	checks   []Check
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, featured FeaturedSource, render view.Renderer, checks ...Check) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, featured: featured, render: render, checks: checks}
}

// MountRoutes registers / and /healthz.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/healthz", h.health)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	featured, err := h.featured.Featured(r.Context(), featuredLimit)
	if err != nil {
		// the landing page still renders without the showcase
		h.logger.Warn("load featured projects", slog.Any("error", err))
		featured = nil
	}
	h.render.Render(w, r, "pages/home.html", "", map[string]any{
		"Featured": featured,
	}, http.StatusOK)
}

// NotFound renders the public 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "pages/not_found.html", "Not found", nil, http.StatusNotFound)
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	report := healthReport{Status: "ok"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		report.Checks = make(map[string]string, len(h.checks))
	}
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", slog.String("check", c.Name), slog.Any("error", err))
			report.Checks[c.Name] = "down"
			report.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		report.Checks[c.Name] = "up"
	}
	httpx.JSON(w, status, report)
}
