package audit

import (
	"context"
	"log/slog"
)

// Async decouples event emission from the request path: Emit never
// blocks, and a Worker drains the inbox in the background. Events are
// dropped with a warning when the inbox is full; the audit trail is not
// worth stalling verifications for.
type Async struct {
	publisher *Publisher
	inbox     chan Event
	logger    *slog.Logger
}

func NewAsync(publisher *Publisher, buffer int, logger *slog.Logger) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Async{
		publisher: publisher,
		inbox:     make(chan Event, buffer),
		logger:    logger,
	}
}

// Emit enqueues the event without blocking.
func (a *Async) Emit(ctx context.Context, event Event) {
	select {
	case a.inbox <- event:
	default:
		a.logger.WarnContext(ctx, "audit inbox full, dropping event", "action", event.Action)
	}
}

// Run drains the inbox until the context is cancelled.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return ctx.Err()
		case event := <-a.inbox:
			if err := a.publisher.Emit(ctx, event); err != nil {
				a.logger.ErrorContext(ctx, "audit append failed", "action", event.Action, "error", err)
			}
		}
	}
}

// drain flushes whatever is still queued at shutdown.
func (a *Async) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-a.inbox:
			if err := a.publisher.Emit(ctx, event); err != nil {
				a.logger.Error("audit append failed during drain", "action", event.Action, "error", err)
			}
		default:
			return
		}
	}
}
