package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/invoice"
	"github.com/invoicely/invoicely/internal/invoice/export"
	jobmetrics "github.com/invoicely/invoicely/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// InvoiceLoader fetches an invoice regardless of owner.
type InvoiceLoader interface {
	Load(ctx context.Context, id string) (*invoice.Invoice, invoice.Totals, error)
}

// PDFRenderer renders and caches invoice PDFs; satisfied by *invoice.PDFRenderer.
type PDFRenderer interface {
	Render(ctx context.Context, inv invoice.Invoice, totals invoice.Totals, loc i18n.Locale) (export.Document, bool, error)
}

// PDFWarmupJob fills the PDF cache after an invoice is saved.
type PDFWarmupJob struct {
	Invoices InvoiceLoader
	Renderer PDFRenderer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewPDFWarmupJob wires dependencies for the warm-up handler.
func NewPDFWarmupJob(invoices InvoiceLoader, renderer PDFRenderer, logger *slog.Logger, metrics *jobmetrics.Metrics) *PDFWarmupJob {
	return &PDFWarmupJob{Invoices: invoices, Renderer: renderer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskInvoicePDFWarmup tasks. Deleted invoices and unknown
// locales are dropped without retry.
func (j *PDFWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Invoices == nil || j.Renderer == nil {
		return errors.New("pdf warmup: handler not configured")
	}
	var payload PDFWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("pdf warmup: decode payload: %w", asynq.SkipRetry)
	}
	loc, ok := i18n.Parse(payload.Locale)
	if !ok {
		return fmt.Errorf("pdf warmup: locale %q: %w", payload.Locale, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskInvoicePDFWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.String("invoice_id", payload.InvoiceID), slog.String("locale", string(loc)))

	inv, totals, err := j.Invoices.Load(ctx, payload.InvoiceID)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			logger.Info("invoice gone, skipping warmup")
			return nil
		}
		logger.Error("load invoice", slog.Any("error", err))
		return err
	}

	doc, cached, err := j.Renderer.Render(ctx, *inv, totals, loc)
	if err != nil {
		logger.Error("render pdf", slog.Any("error", err))
		return err
	}
	if !cached {
		j.metrics().AddWarmedPages(string(loc), doc.Pages)
	}
	logger.Info("pdf warm", slog.Int("pages", doc.Pages), slog.Bool("cached", cached))
	return nil
}

func (j *PDFWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskInvoicePDFWarmup))
	}
	return slog.Default().With(slog.String("job", TaskInvoicePDFWarmup))
}

func (j *PDFWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
