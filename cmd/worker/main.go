package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/folio-studio/folio/internal/app"
	"github.com/folio-studio/folio/internal/contact"
	jobmetrics "github.com/folio-studio/folio/internal/jobs"
	"github.com/folio-studio/folio/internal/observability"
	"github.com/folio-studio/folio/internal/platform/db"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/jobs"
)

// idempotencyRetention bounds how long contact replay keys are kept.
const idempotencyRetention = 72 * time.Hour

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 4})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	obs := observability.NewMetrics()
	metrics := jobmetrics.NewMetrics(obs.Registerer())
	if cfg.WorkerMetricsAddr != "" {
		ln, err := net.Listen("tcp", cfg.WorkerMetricsAddr)
		if err != nil {
			logger.Error("listen metrics", slog.Any("error", err))
			os.Exit(1)
		}
		go func() {
			if err := jobs.ServeMetrics(ctx, ln, obs.Handler(), logger); err != nil {
				logger.Error("metrics server", slog.Any("error", err))
			}
		}()
	}

	mailer := jobs.NewSMTPMailer(jobs.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	notifyJob := jobs.NewContactNotifyJob(contact.NewRepository(pool), mailer, cfg.NotifyEmail, logger, metrics)

	idempotency := shared.NewIdempotencyStore(pool)
	cleanup := func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(jobs.TaskIdempotencyCleanup)
		removed, err := idempotency.Cleanup(ctx, idempotencyRetention)
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("idempotency keys pruned", slog.Int64("removed", removed))
		return tracker.End(nil)
	}

	digestTask, err := jobs.NewContactDigestTask(24)
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskContactNotify, Handler: notifyJob.Handle},
			{Type: jobs.TaskContactDigest, Handler: notifyJob.HandleDigest},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanup},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 8 * * *", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: asynq.NewTask(jobs.TaskIdempotencyCleanup, nil), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
