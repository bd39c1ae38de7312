package outbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/josh-kwaku/payments-processing/internal/config"
	"github.com/josh-kwaku/payments-processing/internal/domain"
)

// Conduit hands an event to a downstream system. A nil error means the event
// was accepted and may be removed from the outbox.
type Conduit interface {
	Send(ctx context.Context, event domain.PaymentEvent) error
}

// LogConduit writes events to the log. It is used when no downstream system
// is configured.
type LogConduit struct {
	logger *slog.Logger
}

func NewLogConduit(logger *slog.Logger) *LogConduit {
	return &LogConduit{logger: logger}
}

func (c *LogConduit) Send(ctx context.Context, event domain.PaymentEvent) error {
	c.logger.InfoContext(ctx, "payment event",
		"event_id", event.ID(),
		"event_type", event.Name(),
		"payment_id", event.AggregateID(),
		"needs_confirmation", event.NeedsConfirmation(),
	)
	return nil
}

// NewConduit builds the conduit selected by cfg.Conduit. The returned close
// function releases its connections.
func NewConduit(cfg config.OutboxConfig, logger *slog.Logger) (Conduit, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Conduit {
	case config.ConduitLog:
		return NewLogConduit(logger), noop, nil
	case config.ConduitWebhook:
		return NewWebhookConduit(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout), noop, nil
	case config.ConduitKafka:
		w := &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
		return NewKafkaConduit(w), w.Close, nil
	default:
		return nil, noop, fmt.Errorf("NewConduit: unknown conduit %q", cfg.Conduit)
	}
}

func conduitName(c Conduit) string {
	switch c.(type) {
	case *LogConduit:
		return config.ConduitLog
	case *WebhookConduit:
		return config.ConduitWebhook
	case *KafkaConduit:
		return config.ConduitKafka
	default:
		return "custom"
	}
}
