package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/payments-processing/internal/domain"
)

const outboxColumns = `id, event_id, event_name, payload, created_at`

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create appends a record inside the caller's transaction and fills in its
// sequence ID.
func (r *OutboxRepository) Create(ctx context.Context, tx *sql.Tx, rec *domain.OutboxRecord) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO outbox_events (event_id, event_name, payload, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		rec.EventID, rec.EventName, rec.Payload, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetOldestForUpdate claims the oldest undelivered record. Rows locked by
// another sender are skipped, so two senders never deliver the same record.
func (r *OutboxRepository) GetOldestForUpdate(ctx context.Context, tx *sql.Tx) (*domain.OutboxRecord, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+outboxColumns+` FROM outbox_events
		ORDER BY id LIMIT 1 FOR UPDATE SKIP LOCKED`,
	)
	rec, err := scanOutboxRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetOldestForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetOldestForUpdate: %w", err)
	}
	return rec, nil
}

func (r *OutboxRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM outbox_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM outbox_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountPending: %w", err)
	}
	return n, nil
}

func scanOutboxRecord(s scanner) (*domain.OutboxRecord, error) {
	var rec domain.OutboxRecord
	if err := s.Scan(&rec.ID, &rec.EventID, &rec.EventName, &rec.Payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
