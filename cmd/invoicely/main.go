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

	"github.com/hibiken/asynq"

	"github.com/invoicely/invoicely/cmd/invoicely/cli"
	"github.com/invoicely/invoicely/internal/app"
	"github.com/invoicely/invoicely/internal/auth"
	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/invoice"
	"github.com/invoicely/invoicely/internal/invoice/export"
	"github.com/invoicely/invoicely/internal/observability"
	"github.com/invoicely/invoicely/internal/platform/cache"
	"github.com/invoicely/invoicely/internal/platform/db"
	"github.com/invoicely/invoicely/internal/shared"
	"github.com/invoicely/invoicely/internal/view"
	"github.com/invoicely/invoicely/jobs"
	"github.com/invoicely/invoicely/report"
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobs(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logger, stop); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger, stop context.CancelFunc) error {
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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	catalog, err := i18n.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobsClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	invoiceService := invoice.NewService(invoice.NewRepository(pool), logger,
		invoice.WithAuditor(shared.NewAuditLogger(pool)),
		invoice.WithEnqueuer(jobsClient),
	)

	reportClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	exporter := export.NewExporter(export.ScreenshotCapturer{Backend: reportClient}, metrics)
	pdfCache := export.NewCache(redisClient, cfg.PDFCacheTTL, logger)
	renderer := invoice.NewPDFRenderer(templates, exporter, pdfCache, catalog)
	invoiceHandler := invoice.NewHandler(logger, invoiceService, renderer, templates, csrfManager)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Catalog:        catalog,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		InvoiceHandler: invoiceHandler,
		ReportHandler:  report.NewHandler(reportClient, logger),
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) error {
	c := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer c.Close()

	if len(args) == 0 {
		return errors.New("usage: invoicely jobs stats | warmup <invoice-id> [locale]")
	}
	switch args[0] {
	case "stats":
		stats, err := c.InspectQueues(ctx)
		if err != nil {
			return err
		}
		cli.PrintStats(os.Stdout, stats)
		return nil
	case "warmup":
		if len(args) < 2 {
			return errors.New("usage: invoicely jobs warmup <invoice-id> [locale]")
		}
		locale := ""
		if len(args) > 2 {
			locale = args[2]
		}
		infos, err := c.Warmup(ctx, args[1], locale)
		for _, info := range infos {
			fmt.Fprintf(os.Stdout, "enqueued %s on %s\n", info.ID, info.Queue)
		}
		return err
	}
	return fmt.Errorf("unknown jobs command %q", args[0])
}
