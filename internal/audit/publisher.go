package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher captures structured audit events. The store append must
// succeed; sink deliveries are best effort and only logged on failure.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger, sinks ...Sink) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{store: store, sinks: sinks, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Append(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "audit sink delivery failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
