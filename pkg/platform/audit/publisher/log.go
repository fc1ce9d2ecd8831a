package publisher

import (
	"context"
	"log/slog"

	audit "zkdao/pkg/platform/audit"
)

// LogPublisher writes audit events to the structured log. Default sink when
// no Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event audit.Event) {
	p.logger.InfoContext(ctx, "audit event",
		"category", string(audit.GovernanceEvent(event.Action).Category()),
		"action", event.Action,
		"actor", event.Actor,
		"subject", event.Subject,
		"decision", event.Decision,
		"reason", event.Reason,
		"proof_hash", event.ProofHash,
		"request_id", event.RequestID,
	)
}
