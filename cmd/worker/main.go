package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/invoicely/invoicely/internal/app"
	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/invoice"
	"github.com/invoicely/invoicely/internal/invoice/export"
	jobmetrics "github.com/invoicely/invoicely/internal/jobs"
	"github.com/invoicely/invoicely/internal/observability"
	"github.com/invoicely/invoicely/internal/platform/cache"
	"github.com/invoicely/invoicely/internal/platform/db"
	"github.com/invoicely/invoicely/internal/view"
	"github.com/invoicely/invoicely/jobs"
	"github.com/invoicely/invoicely/report"
)

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

	logger := app.NewLogger(cfg).With(slog.String("process", "worker"))

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	catalog, err := i18n.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	invoiceService := invoice.NewService(invoice.NewRepository(pool), logger)
	gotenberg := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	exporter := export.NewExporter(export.ScreenshotCapturer{Backend: gotenberg}, metrics)
	renderer := invoice.NewPDFRenderer(templates, exporter, export.NewCache(redisClient, cfg.PDFCacheTTL, logger), catalog)
	warmup := jobs.NewPDFWarmupJob(invoiceService, renderer, logger, jobMetrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInvoicePDFWarmup, Handler: warmup.Handle},
		},
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	health := &http.Server{Addr: cfg.WorkerHealthAddr, Handler: r, ReadTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency))
		return worker.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("starting health server", slog.String("addr", cfg.WorkerHealthAddr))
		if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return health.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
