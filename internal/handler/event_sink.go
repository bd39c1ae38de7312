package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/logging"
	"github.com/josh-kwaku/payments-processing/internal/outbox"
	"github.com/josh-kwaku/payments-processing/internal/repository"
)

type receivedEventRepository interface {
	Record(ctx context.Context, e *repository.ReceivedEvent) (bool, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]repository.ReceivedEvent, error)
}

// EventSinkHandler receives payment events pushed by the webhook conduit.
// It verifies the signature and acknowledges redeliveries without storing
// them twice.
type EventSinkHandler struct {
	events receivedEventRepository
	secret string
}

func NewEventSinkHandler(events receivedEventRepository, secret string) *EventSinkHandler {
	return &EventSinkHandler{events: events, secret: secret}
}

type sinkAck struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`
}

func (h *EventSinkHandler) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read event body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if !outbox.VerifySignature(h.secret, body, r.Header.Get(outbox.SignatureHeader)) {
		log.Warn("event signature verification failed")
		RespondAppError(w, ErrInvalidSignature, nil)
		return
	}

	event, err := domain.UnmarshalEvent(body)
	if err != nil {
		log.Warn("failed to decode event", "error", err)
		if errors.Is(err, domain.ErrUnknownEvent) {
			RespondAppError(w, ErrInvalidRequest.WithMessage("Unknown event type"), nil)
			return
		}
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	isNew, err := h.events.Record(r.Context(), &repository.ReceivedEvent{
		EventID:    event.ID(),
		EventName:  string(event.Name()),
		PaymentID:  event.AggregateID(),
		Payload:    string(body),
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error("failed to store event", "error", err, "event_id", event.ID())
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	if !isNew {
		log.Info("duplicate event received", "event_id", event.ID(), "payment_id", event.AggregateID())
		RespondSuccess(w, http.StatusOK, sinkAck{Status: "already_received", EventID: event.ID().String()})
		return
	}

	log.Info("event received",
		"event_id", event.ID(),
		"event_type", event.Name(),
		"payment_id", event.AggregateID(),
		"needs_confirmation", event.NeedsConfirmation(),
	)
	RespondSuccess(w, http.StatusOK, sinkAck{Status: "received", EventID: event.ID().String()})
}

type receivedEventDTO struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	ReceivedAt time.Time `json:"received_at"`
}

type paymentEventsDTO struct {
	PaymentID uuid.UUID          `json:"payment_id"`
	Events    []receivedEventDTO `json:"events"`
}

// ListPaymentEvents shows which events arrived for a payment, so operators
// can confirm end to end delivery.
func (h *EventSinkHandler) ListPaymentEvents(w http.ResponseWriter, r *http.Request) {
	rawID := r.PathValue("id")
	paymentID, err := uuid.Parse(rawID)
	if err != nil {
		RespondAppError(w, ErrInvalidPaymentID.WithMessage(domain.InvalidPaymentID(rawID).Message.String()), nil)
		return
	}

	events, err := h.events.ListByPayment(r.Context(), paymentID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list received events", "error", err, "payment_id", paymentID)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	resp := paymentEventsDTO{PaymentID: paymentID, Events: make([]receivedEventDTO, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, receivedEventDTO{EventID: e.EventID, EventType: e.EventName, ReceivedAt: e.ReceivedAt})
	}
	RespondSuccess(w, http.StatusOK, resp)
}
