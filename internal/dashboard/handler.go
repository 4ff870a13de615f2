// Package dashboard renders the admin home page.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/folio-studio/folio/internal/contact"
	"github.com/folio-studio/folio/internal/projects"
	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/view"
)

const (
	requestTimeout = 2 * time.Second
	latestLimit    = 5
)

// ProjectStats reports project totals.
type ProjectStats interface {
	Counts(ctx context.Context) (projects.Counts, error)
}

// MemberStats reports the member total.
type MemberStats interface {
	CountMembers(ctx context.Context) (int, error)
}

// RoleStats reports the team role total.
type RoleStats interface {
	CountRoles(ctx context.Context) (int, error)
}

// SubmissionStats reports contact submission totals and the newest entries.
type SubmissionStats interface {
	Counts(ctx context.Context) (contact.Counts, error)
	Latest(ctx context.Context, limit int) ([]contact.Submission, error)
}

// Sources groups the dashboard data providers.
type Sources struct {
	Projects    ProjectStats
	Members     MemberStats
	Roles       RoleStats
	Submissions SubmissionStats
}

// Summary is the data behind the dashboard widgets.
type Summary struct {
	Projects    projects.Counts
	Members     int
	Roles       int
	Submissions contact.Counts
	Latest      []contact.Submission
}

// Handler serves GET /admin.
type Handler struct {
	logger  *slog.Logger
	sources Sources
	render  view.Renderer
	rbac    rbac.Middleware
}

// NewHandler builds the dashboard handler.
func NewHandler(logger *slog.Logger, sources Sources, render view.Renderer, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, sources: sources, render: render, rbac: mw}
}

// MountRoutes registers the dashboard under /admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermViewDashboard)).Get("/", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Load(r.Context())
	if err != nil {
		h.logger.Error("load dashboard", slog.Any("error", err))
		h.render.Render(w, r, "pages/admin/dashboard.html", "Dashboard", map[string]any{
			"Error": "Dashboard data is unavailable right now.",
		}, http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "pages/admin/dashboard.html", "Dashboard", map[string]any{
		"Summary": summary,
	}, http.StatusOK)
}

// Load fetches every widget concurrently. The first failure cancels the rest.
func (h *Handler) Load(ctx context.Context) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var summary Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := h.sources.Projects.Counts(ctx)
		if err != nil {
			return err
		}
		summary.Projects = counts
		return nil
	})

	g.Go(func() error {
		total, err := h.sources.Members.CountMembers(ctx)
		if err != nil {
			return err
		}
		summary.Members = total
		return nil
	})

	g.Go(func() error {
		total, err := h.sources.Roles.CountRoles(ctx)
		if err != nil {
			return err
		}
		summary.Roles = total
		return nil
	})

	g.Go(func() error {
		counts, err := h.sources.Submissions.Counts(ctx)
		if err != nil {
			return err
		}
		summary.Submissions = counts
		return nil
	})

	g.Go(func() error {
		latest, err := h.sources.Submissions.Latest(ctx, latestLimit)
		if err != nil {
			return err
		}
		summary.Latest = latest
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
