package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"gatekeeper/pkg/requestcontext"
)

// Publisher writes events to a primary store and optionally mirrors them to
// additional sinks. Sink failures are logged and do not fail the emit.
type Publisher struct {
	store  Store
	sinks  []Store
	logger *slog.Logger
}

type PublisherOption func(*Publisher)

// WithSink mirrors every event to an additional store, typically a message
// broker producer.
func WithSink(sink Store) PublisherOption {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func NewPublisher(store Store, logger *slog.Logger, opts ...PublisherOption) (*Publisher, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Emit assigns the event an ID and timestamp when absent and persists it.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx).UTC()
	}

	if err := p.store.Append(ctx, event); err != nil {
		return fmt.Errorf("emitting audit event: %w", err)
	}

	for _, sink := range p.sinks {
		if err := sink.Append(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "audit sink append failed",
				slog.String("reason", event.Reason),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
