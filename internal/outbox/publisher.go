package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/payments-processing/internal/domain"
)

type recordCreator interface {
	Create(ctx context.Context, tx *sql.Tx, rec *domain.OutboxRecord) error
}

// Publisher writes events to the outbox table in the caller's transaction.
// Delivery happens later in the Sender.
type Publisher struct {
	store recordCreator
	clock domain.Clock
}

func NewPublisher(store recordCreator, clock domain.Clock) *Publisher {
	return &Publisher{store: store, clock: clock}
}

func (p *Publisher) Publish(ctx context.Context, tx *sql.Tx, event domain.PaymentEvent) error {
	payload, err := domain.MarshalEvent(event)
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}

	rec := &domain.OutboxRecord{
		EventID:   event.ID(),
		EventName: event.Name(),
		Payload:   string(payload),
		CreatedAt: p.clock.Now(),
	}
	if err := p.store.Create(ctx, tx, rec); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}
