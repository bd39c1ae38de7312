package outbox

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/josh-kwaku/payments-processing/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaConduit publishes events keyed by payment ID, so all events of one
// payment land on the same partition in order.
type KafkaConduit struct {
	writer messageWriter
}

func NewKafkaConduit(w messageWriter) *KafkaConduit {
	return &KafkaConduit{writer: w}
}

func (c *KafkaConduit) Send(ctx context.Context, event domain.PaymentEvent) error {
	payload, err := domain.MarshalEvent(event)
	if err != nil {
		return fmt.Errorf("KafkaConduit.Send: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID().String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Name())},
			{Key: "event-id", Value: []byte(event.ID().String())},
			{Key: "needs-confirmation", Value: []byte(strconv.FormatBool(event.NeedsConfirmation()))},
		},
	}
	if err := c.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("KafkaConduit.Send: %w", err)
	}
	return nil
}
