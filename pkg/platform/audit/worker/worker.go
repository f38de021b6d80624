package worker

import (
	"context"
	"log/slog"

	audit "ascend/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. It returns
// once the inbox is closed and drained, or when ctx is cancelled.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			// Persist with a detached context so a cancelled request does not
			// drop an event that was already accepted.
			if err := w.store.Append(context.WithoutCancel(ctx), event); err != nil && w.logger != nil {
				w.logger.Error("failed to persist audit event",
					"action", event.Action,
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}
