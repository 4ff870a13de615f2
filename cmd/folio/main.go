package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/folio-studio/folio/internal/app"
	"github.com/folio-studio/folio/internal/auth"
	"github.com/folio-studio/folio/internal/contact"
	"github.com/folio-studio/folio/internal/dashboard"
	"github.com/folio-studio/folio/internal/diagnostics"
	"github.com/folio-studio/folio/internal/members"
	"github.com/folio-studio/folio/internal/observability"
	"github.com/folio-studio/folio/internal/perf"
	"github.com/folio-studio/folio/internal/platform/cache"
	"github.com/folio-studio/folio/internal/platform/db"
	"github.com/folio-studio/folio/internal/projects"
	"github.com/folio-studio/folio/internal/rbac"
	rbachttp "github.com/folio-studio/folio/internal/rbac/http"
	"github.com/folio-studio/folio/internal/roles"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/site"
	"github.com/folio-studio/folio/internal/view"
	"github.com/folio-studio/folio/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// A missing Redis degrades admin pages to the loading placeholder
	// instead of stopping the site.
	redisClient := cache.NewClient(cfg.RedisAddr)
	if err := cache.Ping(ctx, redisClient); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()
	tracker := perf.NewTracker(cfg.RenderLogCapacity, cfg.RenderTracking, metrics.Registerer())

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	templates.SetObserver(tracker)
	render := view.Renderer{Engine: templates, CSRF: csrfManager, Logger: logger}

	assetStore, uploadsDir, err := app.AssetStore(ctx, cfg)
	if err != nil {
		logger.Error("init asset store", slog.Any("error", err))
		os.Exit(1)
	}

	rbacMiddleware := rbac.Middleware{Logger: logger}
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, render, sessionManager, csrfManager, auth.NewReturnTo(cfg.SessionSecret, cfg.IsProduction()), tokens)
	guard := &auth.Guard{
		Gate:   auth.Gate{Logger: logger, Placeholder: app.LoadingPlaceholder(render)},
		Tokens: tokens,
		Logger: logger,
	}

	projectService := projects.NewService(projects.NewRepository(dbpool), assetStore, auditLogger, logger)
	roleService := roles.NewService(roles.NewRepository(dbpool), auditLogger, logger)
	memberService := members.NewService(members.NewRepository(dbpool), auditLogger, logger)
	contactService := contact.NewService(contact.NewRepository(dbpool), idempotencyStore, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Guard:          guard,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,

		SiteHandler: site.NewHandler(logger, projectService, render,
			site.Check{Name: "postgres", Ping: dbpool.Ping},
			site.Check{Name: "redis", Ping: func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }},
		),
		AuthHandler: authHandler,
		DashboardHandler: dashboard.NewHandler(logger, dashboard.Sources{
			Projects:    projectService,
			Members:     memberService,
			Roles:       roleService,
			Submissions: contactService,
		}, render, rbacMiddleware),
		ProjectsHandler:    projects.NewHandler(logger, projectService, render, rbacMiddleware),
		ProjectsPublic:     projects.NewPublicHandler(logger, projectService, render),
		RolesHandler:       roles.NewHandler(logger, roleService, render, rbacMiddleware),
		MembersHandler:     members.NewHandler(logger, memberService, roleService, render, rbacMiddleware),
		MembersPublic:      members.NewPublicHandler(logger, memberService, render),
		ContactHandler:     contact.NewHandler(logger, contactService, render, rbacMiddleware),
		PermissionsHandler: rbachttp.NewHandler(render, rbacMiddleware),
		PerfHandler:        perf.NewHandler(logger, tracker, render, rbacMiddleware),
		DiagnosticsHandler: diagnostics.NewHandler(logger, diagnostics.NewInspector(dbpool), rbacMiddleware, cfg.IsProduction()),
		JobHandler:         jobs.NewHandler(inspector, logger),

		UploadsDir:     uploadsDir,
		UploadsBaseURL: cfg.AssetBaseURL,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
