package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type EventName string

const (
	EventPaymentCreated   EventName = "paymentCreatedEvent"
	EventPaymentCancelled EventName = "paymentCancelledEvent"
)

// PaymentEvent is implemented only by PaymentCreated and PaymentCancelled.
type PaymentEvent interface {
	ID() uuid.UUID
	AggregateID() uuid.UUID
	Name() EventName
	// NeedsConfirmation reports whether consumers must acknowledge the event.
	NeedsConfirmation() bool
	paymentEvent()
}

type PaymentCreated struct {
	EventID   uuid.UUID   `json:"eventId"`
	PaymentID uuid.UUID   `json:"paymentId"`
	Type      PaymentType `json:"type"`
}

func NewPaymentCreated(paymentID uuid.UUID, t PaymentType) PaymentCreated {
	return PaymentCreated{EventID: uuid.New(), PaymentID: paymentID, Type: t}
}

func (e PaymentCreated) ID() uuid.UUID           { return e.EventID }
func (e PaymentCreated) AggregateID() uuid.UUID  { return e.PaymentID }
func (e PaymentCreated) Name() EventName         { return EventPaymentCreated }
func (e PaymentCreated) NeedsConfirmation() bool { return true }
func (PaymentCreated) paymentEvent()             {}

type PaymentCancelled struct {
	EventID   uuid.UUID `json:"eventId"`
	PaymentID uuid.UUID `json:"paymentId"`
}

func NewPaymentCancelled(paymentID uuid.UUID) PaymentCancelled {
	return PaymentCancelled{EventID: uuid.New(), PaymentID: paymentID}
}

func (e PaymentCancelled) ID() uuid.UUID           { return e.EventID }
func (e PaymentCancelled) AggregateID() uuid.UUID  { return e.PaymentID }
func (e PaymentCancelled) Name() EventName         { return EventPaymentCancelled }
func (e PaymentCancelled) NeedsConfirmation() bool { return false }
func (PaymentCancelled) paymentEvent()             {}

const eventDiscriminator = "event-type"

type eventHeader struct {
	Name EventName `json:"event-type"`
}

// MarshalEvent writes the event fields together with its event-type tag.
func MarshalEvent(e PaymentEvent) ([]byte, error) {
	var v any
	switch ev := e.(type) {
	case PaymentCreated:
		v = struct {
			eventHeader
			PaymentCreated
		}{eventHeader{ev.Name()}, ev}
	case PaymentCancelled:
		v = struct {
			eventHeader
			PaymentCancelled
		}{eventHeader{ev.Name()}, ev}
	default:
		return nil, fmt.Errorf("MarshalEvent: %T: %w", e, ErrUnknownEvent)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("MarshalEvent: %w", err)
	}
	return data, nil
}

func UnmarshalEvent(data []byte) (PaymentEvent, error) {
	var head eventHeader
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("UnmarshalEvent: %w: %w", ErrMalformedEvent, err)
	}

	switch head.Name {
	case EventPaymentCreated:
		var ev PaymentCreated
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("UnmarshalEvent: %w: %w", ErrMalformedEvent, err)
		}
		if ev.EventID == uuid.Nil || ev.PaymentID == uuid.Nil || !ev.Type.IsValid() {
			return nil, fmt.Errorf("UnmarshalEvent: %s: %w", head.Name, ErrMalformedEvent)
		}
		return ev, nil
	case EventPaymentCancelled:
		var ev PaymentCancelled
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("UnmarshalEvent: %w: %w", ErrMalformedEvent, err)
		}
		if ev.EventID == uuid.Nil || ev.PaymentID == uuid.Nil {
			return nil, fmt.Errorf("UnmarshalEvent: %s: %w", head.Name, ErrMalformedEvent)
		}
		return ev, nil
	case "":
		return nil, fmt.Errorf("UnmarshalEvent: missing %s: %w", eventDiscriminator, ErrMalformedEvent)
	default:
		return nil, fmt.Errorf("UnmarshalEvent: %q: %w", head.Name, ErrUnknownEvent)
	}
}
