// Package river executes payout transfers on the River job queue.
package river

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"ascend/internal/payout/models"
	"ascend/pkg/domain"
)

// ExecuteArgs names the payout request whose transfer should run.
type ExecuteArgs struct {
	RequestID domain.PayoutRequestID `json:"payout_request_id"`
}

func (ExecuteArgs) Kind() string { return "payout_execute" }

// InsertOpts keeps one pending execution per request.
func (ExecuteArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: 8,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	}
}

// Executor runs a payout transfer.
type Executor interface {
	ExecutePayout(ctx context.Context, id domain.PayoutRequestID) (*models.Request, error)
	FailPayout(ctx context.Context, id domain.PayoutRequestID, reason string) (*models.Request, error)
}

type ExecuteWorker struct {
	river.WorkerDefaults[ExecuteArgs]
	executor Executor
	logger   *slog.Logger
}

func NewExecuteWorker(executor Executor, logger *slog.Logger) *ExecuteWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecuteWorker{executor: executor, logger: logger}
}

// Work executes the transfer. A request that ended up completed or failed is
// done; anything else is retried, and failed once attempts run out.
func (w *ExecuteWorker) Work(ctx context.Context, job *river.Job[ExecuteArgs]) error {
	id := job.Args.RequestID
	r, err := w.executor.ExecutePayout(ctx, id)
	if err == nil {
		return nil
	}
	if r != nil && r.Status.IsTerminal() {
		w.logger.WarnContext(ctx, "payout transfer failed",
			"payout_request_id", id.String(),
			"error", err,
		)
		return nil
	}
	if job.JobRow != nil && job.Attempt >= job.MaxAttempts {
		if _, failErr := w.executor.FailPayout(ctx, id, "transfer gateway unavailable after retries"); failErr != nil {
			w.logger.ErrorContext(ctx, "failed to close payout after final attempt",
				"payout_request_id", id.String(),
				"error", failErr,
			)
		}
		return river.JobCancel(err)
	}
	return err
}

func (w *ExecuteWorker) Timeout(*river.Job[ExecuteArgs]) time.Duration {
	return time.Minute
}

// Inserter is the River client's insert call.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Enqueuer schedules payout executions on River.
type Enqueuer struct {
	client Inserter
}

func NewEnqueuer(client Inserter) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueExecution(ctx context.Context, id domain.PayoutRequestID) error {
	_, err := e.client.Insert(ctx, ExecuteArgs{RequestID: id}, nil)
	return err
}
