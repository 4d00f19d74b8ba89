package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/invoice"
	"github.com/invoicely/invoicely/internal/invoice/export"
	jobmetrics "github.com/invoicely/invoicely/internal/jobs"
)

type stubLoader struct {
	inv *invoice.Invoice
	err error
}

func (s stubLoader) Load(context.Context, string) (*invoice.Invoice, invoice.Totals, error) {
	if s.err != nil {
		return nil, invoice.Totals{}, s.err
	}
	return s.inv, invoice.ComputeTotals(*s.inv), nil
}

type stubRenderer struct {
	calls   int
	locales []i18n.Locale
	err     error
}

func (s *stubRenderer) Render(_ context.Context, _ invoice.Invoice, _ invoice.Totals, loc i18n.Locale) (export.Document, bool, error) {
	s.calls++
	s.locales = append(s.locales, loc)
	if s.err != nil {
		return export.Document{}, false, s.err
	}
	return export.Document{Data: []byte("%PDF"), Pages: 2}, false, nil
}

func newJob(loader InvoiceLoader, renderer PDFRenderer) *PDFWarmupJob {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPDFWarmupJob(loader, renderer, logger, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func warmupTask(t *testing.T, id, locale string) *asynq.Task {
	t.Helper()
	task, err := NewPDFWarmupTask(PDFWarmupPayload{InvoiceID: id, Locale: locale})
	require.NoError(t, err)
	return task
}

func TestNewPDFWarmupTask(t *testing.T) {
	task := warmupTask(t, "inv-1", "fr")
	assert.Equal(t, TaskInvoicePDFWarmup, task.Type())

	var payload PDFWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, PDFWarmupPayload{InvoiceID: "inv-1", Locale: "fr"}, payload)

	_, err := NewPDFWarmupTask(PDFWarmupPayload{Locale: "fr"})
	assert.Error(t, err)
}

func TestPDFWarmupRendersRequestedLocale(t *testing.T) {
	renderer := &stubRenderer{}
	job := newJob(stubLoader{inv: &invoice.Invoice{ID: "inv-1", Name: "Acme"}}, renderer)

	require.NoError(t, job.Handle(context.Background(), warmupTask(t, "inv-1", "fr")))
	assert.Equal(t, []i18n.Locale{i18n.French}, renderer.locales)
}

func TestPDFWarmupSkipsDeletedInvoices(t *testing.T) {
	renderer := &stubRenderer{}
	job := newJob(stubLoader{err: invoice.ErrNotFound}, renderer)

	require.NoError(t, job.Handle(context.Background(), warmupTask(t, "gone", "en")))
	assert.Zero(t, renderer.calls)
}

func TestPDFWarmupRejectsUnknownLocaleWithoutRetry(t *testing.T) {
	job := newJob(stubLoader{inv: &invoice.Invoice{ID: "inv-1"}}, &stubRenderer{})

	err := job.Handle(context.Background(), warmupTask(t, "inv-1", "de"))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPDFWarmupReturnsRenderErrorsForRetry(t *testing.T) {
	boom := errors.New("gotenberg down")
	job := newJob(stubLoader{inv: &invoice.Invoice{ID: "inv-1"}}, &stubRenderer{err: boom})

	err := job.Handle(context.Background(), warmupTask(t, "inv-1", "en"))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

type stubInspector map[string]*asynq.QueueInfo

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	info, ok := s[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func TestHealthReportsQueues(t *testing.T) {
	h := NewHandler(stubInspector{QueuePDF: {Queue: QueuePDF, Pending: 4, Active: 1}}, nil)
	rr := httptest.NewRecorder()

	h.health(rr, httptest.NewRequest(http.MethodGet, "/api/jobs/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Queues []queueHealth `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []queueHealth{
		{Queue: QueuePDF, Pending: 4, Active: 1},
		{Queue: QueueDefault},
	}, body.Queues)
}
