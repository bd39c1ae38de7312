package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxRecord is an event waiting for delivery. Rows only disappear once a
// conduit has accepted the event.
type OutboxRecord struct {
	ID        int64
	EventID   uuid.UUID
	EventName EventName
	Payload   string
	CreatedAt time.Time
}
