package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to a structured logger. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, "event",
			"id", e.ID.String(),
			"type", e.Type,
			"loan_id", e.LoanID,
			"user_id", e.UserID,
			"occurred_at", e.OccurredAt,
			"data", string(e.Data),
		)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
