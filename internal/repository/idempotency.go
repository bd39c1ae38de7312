package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IdempotencyKey scopes a client supplied Idempotency-Key to the client and
// the route it was sent to.
type IdempotencyKey struct {
	Key      string
	ClientID string
	Route    string
}

// IdempotencyCacheEntry is a reservation or a stored response. A reservation
// has no status code until the request that owns it completes.
type IdempotencyCacheEntry struct {
	IdempotencyKey
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (e *IdempotencyCacheEntry) Completed() bool {
	return e.StatusCode != 0
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Reserve claims k for a request with the given hash until lease elapses. It
// reports false when a live entry already holds k. Expired entries are
// reclaimed.
func (r *IdempotencyRepository) Reserve(ctx context.Context, k IdempotencyKey, requestHash string, lease time.Duration) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, client_id, route, request_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, now(), now() + make_interval(secs => $5))
		ON CONFLICT (idempotency_key, client_id, route) DO UPDATE
		SET request_hash = EXCLUDED.request_hash,
			status_code = NULL,
			response_body = NULL,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_cache.expires_at <= now()`,
		k.Key, k.ClientID, k.Route, requestHash, lease.Seconds(),
	)
	if err != nil {
		return false, fmt.Errorf("Reserve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Reserve: rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, k IdempotencyKey) (*IdempotencyCacheEntry, error) {
	var (
		e      IdempotencyCacheEntry
		status sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, client_id, route, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND client_id = $2 AND route = $3 AND expires_at > now()`,
		k.Key, k.ClientID, k.Route,
	).Scan(&e.Key, &e.ClientID, &e.Route, &e.RequestHash, &status, &e.ResponseBody, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	e.StatusCode = int(status.Int64)
	return &e, nil
}

// Complete stores the response for a reservation and keeps it for ttl.
func (r *IdempotencyRepository) Complete(ctx context.Context, k IdempotencyKey, statusCode int, body []byte, ttl time.Duration) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_cache
		SET status_code = $4, response_body = $5, expires_at = now() + make_interval(secs => $6)
		WHERE idempotency_key = $1 AND client_id = $2 AND route = $3 AND status_code IS NULL`,
		k.Key, k.ClientID, k.Route, statusCode, body, ttl.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return nil
}

// Release drops an uncompleted reservation so the client can retry with the
// same key.
func (r *IdempotencyRepository) Release(ctx context.Context, k IdempotencyKey) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache
		WHERE idempotency_key = $1 AND client_id = $2 AND route = $3 AND status_code IS NULL`,
		k.Key, k.ClientID, k.Route,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: rows affected: %w", err)
	}
	return n, nil
}
