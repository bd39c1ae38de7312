package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ReceivedEvent struct {
	EventID    uuid.UUID
	EventName  string
	PaymentID  uuid.UUID
	Payload    string
	ReceivedAt time.Time
}

// ReceivedEventRepository records events accepted by the event sink.
type ReceivedEventRepository struct {
	db *sql.DB
}

func NewReceivedEventRepository(db *sql.DB) *ReceivedEventRepository {
	return &ReceivedEventRepository{db: db}
}

// Record stores the event and reports whether it was new. A redelivered
// event ID is not an error.
func (r *ReceivedEventRepository) Record(ctx context.Context, e *ReceivedEvent) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO received_events (event_id, event_name, payment_id, payload, received_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.EventID, e.EventName, e.PaymentID, e.Payload, e.ReceivedAt,
	)
	if err != nil {
		if IsDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("Record: %w", err)
	}
	return true, nil
}

// ListByPayment returns the events received for a payment in arrival order.
func (r *ReceivedEventRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]ReceivedEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, event_name, payment_id, payload, received_at
		FROM received_events
		WHERE payment_id = $1
		ORDER BY received_at, event_id`, paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByPayment: %w", err)
	}
	defer rows.Close()

	var events []ReceivedEvent
	for rows.Next() {
		var e ReceivedEvent
		if err := rows.Scan(&e.EventID, &e.EventName, &e.PaymentID, &e.Payload, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("ListByPayment: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByPayment: %w", err)
	}
	return events, nil
}
