// Package cli holds operational helpers behind the "invoicely jobs" subcommand.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers against the given Redis connection.
func NewJobsCLI(opts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Warmup enqueues PDF warm-ups for one invoice, in every locale when locale is empty.
func (c *JobsCLI) Warmup(ctx context.Context, invoiceID, locale string) ([]*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	locales := i18n.Supported
	if locale != "" {
		loc, ok := i18n.Parse(locale)
		if !ok {
			return nil, fmt.Errorf("jobs cli: unsupported locale %q", locale)
		}
		locales = []i18n.Locale{loc}
	}
	infos := make([]*asynq.TaskInfo, 0, len(locales))
	for _, loc := range locales {
		task, err := jobs.NewPDFWarmupTask(jobs.PDFWarmupPayload{InvoiceID: invoiceID, Locale: string(loc)})
		if err != nil {
			return infos, err
		}
		info, err := c.client.EnqueueContext(ctx, task)
		if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
			return infos, err
		}
		if info != nil {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueues reports the metrics of every queue the worker consumes.
func (c *JobsCLI) InspectQueues(ctx context.Context) ([]QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	var out []QueueStats
	for _, queue := range []string{jobs.QueuePDF, jobs.QueueDefault} {
		stats := QueueStats{Queue: queue}
		info, err := c.inspector.GetQueueInfo(queue)
		if err != nil && !errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, err
		}
		if info != nil {
			stats.Pending = info.Pending
			stats.Active = info.Active
			stats.Scheduled = info.Scheduled
			stats.Retry = info.Retry
			stats.Archived = info.Archived
		}
		out = append(out, stats)
	}
	return out, nil
}

// PrintStats writes one line per queue.
func PrintStats(w io.Writer, stats []QueueStats) {
	for _, s := range stats {
		fmt.Fprintf(w, "%-8s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
	}
}
