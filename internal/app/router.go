package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/folio-studio/folio/internal/auth"
	"github.com/folio-studio/folio/internal/contact"
	"github.com/folio-studio/folio/internal/dashboard"
	"github.com/folio-studio/folio/internal/diagnostics"
	"github.com/folio-studio/folio/internal/members"
	"github.com/folio-studio/folio/internal/observability"
	"github.com/folio-studio/folio/internal/perf"
	"github.com/folio-studio/folio/internal/projects"
	"github.com/folio-studio/folio/internal/rbac"
	rbachttp "github.com/folio-studio/folio/internal/rbac/http"
	"github.com/folio-studio/folio/internal/roles"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/site"
	"github.com/folio-studio/folio/internal/view"
	"github.com/folio-studio/folio/jobs"
	"github.com/folio-studio/folio/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          *auth.Guard
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	SiteHandler        *site.Handler
	AuthHandler        *auth.Handler
	DashboardHandler   *dashboard.Handler
	ProjectsHandler    *projects.Handler
	ProjectsPublic     *projects.PublicHandler
	RolesHandler       *roles.Handler
	MembersHandler     *members.Handler
	MembersPublic      *members.PublicHandler
	ContactHandler     *contact.Handler
	PermissionsHandler *rbachttp.Handler
	PerfHandler        *perf.Handler
	DiagnosticsHandler *diagnostics.Handler
	JobHandler         *jobs.Handler

	// UploadsDir is served under the asset base URL when assets live on disk.
	UploadsDir     string
	UploadsBaseURL string
}

// NewRouter constructs the chi.Router with Folio defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	cfg := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}
	if params.Guard != nil {
		cfg.Guard = params.Guard.Middleware
	}
	for _, mw := range MiddlewareStack(cfg) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	params.SiteHandler.MountRoutes(r)
	r.NotFound(params.SiteHandler.NotFound)
	r.Route("/projects", params.ProjectsPublic.MountRoutes)
	r.Get("/team", params.MembersPublic.Team)
	r.Route("/contact", params.ContactHandler.MountPublic)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountAPI)
		params.ContactHandler.MountAPI(r)
		r.Route("/admin", func(r chi.Router) {
			params.DiagnosticsHandler.MountRoutes(r)
			r.Route("/debug/renders", params.PerfHandler.MountAPI)
			if params.JobHandler != nil {
				r.With(params.RBACMiddleware.RequireManage(rbac.ResourceDebug)).
					Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		params.DashboardHandler.MountRoutes(r)
		r.Route("/projects", params.ProjectsHandler.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/members", params.MembersHandler.MountRoutes)
		r.Route("/submissions", params.ContactHandler.MountAdmin)
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		r.Route("/debug/renders", params.PerfHandler.MountRoutes)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}
	if params.UploadsDir != "" && params.UploadsBaseURL != "" {
		prefix := params.UploadsBaseURL + "/"
		uploads := http.StripPrefix(prefix, http.FileServer(http.Dir(params.UploadsDir)))
		r.Handle(prefix+"*", staticCacheHandler(uploads))
	}

	return r
}

// LoadingPlaceholder renders the admin loading page with 503 while the
// session store is unavailable.
func LoadingPlaceholder(render view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, "pages/admin/loading.html", "Loading", nil, http.StatusServiceUnavailable)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
