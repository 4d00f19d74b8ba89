package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueuePDF holds PDF rendering work so it cannot starve other tasks.
	QueuePDF = "pdf"
	// TaskInvoicePDFWarmup renders and caches an invoice PDF ahead of download.
	TaskInvoicePDFWarmup = "invoice:pdf:warmup"
)

// PDFWarmupPayload identifies the invoice revision to render.
type PDFWarmupPayload struct {
	InvoiceID string `json:"invoice_id"`
	Locale    string `json:"locale"`
}

// NewPDFWarmupTask constructs an Asynq task. Repeated saves within the
// uniqueness window collapse into one task per invoice and locale.
func NewPDFWarmupTask(payload PDFWarmupPayload) (*asynq.Task, error) {
	if payload.InvoiceID == "" {
		return nil, fmt.Errorf("jobs: pdf warmup: invoice id required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoicePDFWarmup, data,
		asynq.Queue(QueuePDF),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Unique(30*time.Second),
	), nil
}
