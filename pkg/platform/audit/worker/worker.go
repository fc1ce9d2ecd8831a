package worker

import (
	"context"
	"log/slog"

	audit "zkdao/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Paired with
// ChanPublisher it decouples governance operations from audit storage latency.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Store failures are
// logged and skipped: a broken audit sink must not halt governance.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit event persist failed",
					"action", event.Action,
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}

// ChanPublisher implements audit.Publisher over the worker inbox. Emission is
// non-blocking: when the buffer is full the event is dropped and counted in
// the log rather than stalling the caller.
type ChanPublisher struct {
	outbox chan<- audit.Event
	logger *slog.Logger
}

func NewChanPublisher(outbox chan<- audit.Event, logger *slog.Logger) *ChanPublisher {
	return &ChanPublisher{outbox: outbox, logger: logger}
}

func (p *ChanPublisher) Emit(ctx context.Context, event audit.Event) {
	select {
	case p.outbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"subject", event.Subject,
		)
	}
}
