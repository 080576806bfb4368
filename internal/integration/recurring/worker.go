// Package recurring runs the background processor that posts due recurring transactions.
package recurring

import (
	"context"
	"log/slog"
	"time"

	"github.com/finance-tracker/ledger-api/internal/application/usecase/transaction"
)

// Processor posts due recurring occurrences.
type Processor interface {
	Execute(ctx context.Context, input transaction.ProcessRecurringInput) (*transaction.ProcessRecurringOutput, error)
}

// WorkerConfig holds the worker schedule.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Worker periodically runs the recurring processor.
type Worker struct {
	processor    Processor
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
}

// NewWorker creates a new recurring worker.
func NewWorker(processor Processor, config WorkerConfig) *Worker {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &Worker{
		processor:    processor,
		pollInterval: config.PollInterval,
		batchSize:    config.BatchSize,
		now:          time.Now,
	}
}

// Start runs the worker until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("Recurring worker started",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Recurring worker shutting down")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce processes one batch of due templates. A full batch is followed by
// another until the backlog is drained or nothing more could be posted.
func (w *Worker) RunOnce(ctx context.Context) {
	for {
		output, err := w.processor.Execute(ctx, transaction.ProcessRecurringInput{
			Now:       w.now().UTC(),
			BatchSize: w.batchSize,
		})
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("Recurring processing failed", "error", err)
			}
			return
		}

		handled := output.Posted + output.Skipped + output.Failed
		if handled < w.batchSize || output.Posted == 0 {
			return
		}
	}
}
