package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/logging"
	"github.com/josh-kwaku/payments-processing/internal/metrics"
)

const tracerName = "github.com/josh-kwaku/payments-processing/internal/outbox"

type recordStore interface {
	GetOldestForUpdate(ctx context.Context, tx *sql.Tx) (*domain.OutboxRecord, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type txRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Sender delivers outbox records one at a time, oldest first. A record is
// deleted in the same transaction that claimed it, and only after the
// conduit accepted it; any failure leaves it for the next run.
type Sender struct {
	store    recordStore
	db       txRunner
	conduit  Conduit
	logger   *slog.Logger
	interval time.Duration
}

func NewSender(store recordStore, db txRunner, conduit Conduit, logger *slog.Logger, interval time.Duration) *Sender {
	return &Sender{
		store:    store,
		db:       db,
		conduit:  conduit,
		logger:   logger,
		interval: interval,
	}
}

func (s *Sender) Start(ctx context.Context) {
	s.logger.Info("outbox sender started", "interval", s.interval, "conduit", conduitName(s.conduit))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("outbox sender stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("outbox delivery failed", "error", err)
			}
		}
	}
}

// RunOnce delivers at most one record. It reports whether a record was
// delivered.
func (s *Sender) RunOnce(ctx context.Context) (bool, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "outbox.deliver")
	defer span.End()

	ctx = logging.WithLogger(ctx, s.logger)

	delivered := false
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		rec, err := s.store.GetOldestForUpdate(ctx, tx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			metrics.IncOutboxFailed(metrics.ReasonStorage)
			return fmt.Errorf("RunOnce: %w", err)
		}

		span.SetAttributes(
			attribute.Int64("outbox.id", rec.ID),
			attribute.String("event.id", rec.EventID.String()),
			attribute.String("event.type", string(rec.EventName)),
		)

		event, err := domain.UnmarshalEvent([]byte(rec.Payload))
		if err != nil {
			metrics.IncOutboxFailed(metrics.ReasonDecode)
			return fmt.Errorf("RunOnce: outbox record %d: %w", rec.ID, err)
		}

		start := time.Now()
		if err := s.conduit.Send(ctx, event); err != nil {
			metrics.IncOutboxFailed(metrics.ReasonSend)
			return fmt.Errorf("RunOnce: outbox record %d: %w", rec.ID, err)
		}
		metrics.ObserveOutboxDelivery(time.Since(start).Seconds())

		if err := s.store.Delete(ctx, tx, rec.ID); err != nil {
			metrics.IncOutboxFailed(metrics.ReasonStorage)
			return fmt.Errorf("RunOnce: %w", err)
		}

		metrics.IncOutboxDelivered(string(event.Name()), conduitName(s.conduit))
		s.logger.Debug("outbox event delivered",
			"outbox_id", rec.ID,
			"event_id", event.ID(),
			"event_type", event.Name(),
			"payment_id", event.AggregateID(),
		)
		delivered = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return delivered, nil
}

// Drain delivers records until the outbox is empty, ctx is done, or a
// delivery fails. It returns the number delivered.
func (s *Sender) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		delivered, err := s.RunOnce(ctx)
		if err != nil {
			return n, err
		}
		if !delivered {
			return n, nil
		}
		n++
	}
}
