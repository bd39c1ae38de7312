package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/payments-processing/internal/domain"
)

const paymentColumns = `payment_id, type, debtor_iban, creditor_iban, creditor_bic,
	amount, currency, details, created_at, state,
	cancellation_fee_amount, cancellation_fee_currency, version`

const defaultListLimit = 100

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error {
	s := payment.Snapshot()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payments (
			payment_id, type, debtor_iban, creditor_iban, creditor_bic,
			amount, currency, details, created_at, state,
			cancellation_fee_amount, cancellation_fee_currency, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.PaymentID, s.Type, s.DebtorIban, s.CreditorIban, s.CreditorBic,
		s.Amount, s.Currency, s.Details, s.Created, s.State,
		s.CancellationFeeAmount, s.CancellationFeeCurrency, s.Version,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByPaymentID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByPaymentID: %w", err)
	}
	return p, nil
}

// GetForUpdate locks the payment row until tx ends, so concurrent
// cancellations of the same payment run one after another.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, paymentID uuid.UUID) (*domain.Payment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1 FOR UPDATE`, paymentID,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

// Update writes the mutable state of a payment. It fails with
// ErrVersionConflict when the row changed since the payment was loaded.
func (r *PaymentRepository) Update(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error {
	s := payment.Snapshot()
	res, err := tx.ExecContext(ctx,
		`UPDATE payments
		SET state = $1, cancellation_fee_amount = $2, cancellation_fee_currency = $3, version = version + 1
		WHERE payment_id = $4 AND version = $5`,
		s.State, s.CancellationFeeAmount, s.CancellationFeeCurrency, s.PaymentID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	return nil
}

// GetCancellationFee returns the fee of a cancelled payment. Payments that
// were never cancelled are reported as not found.
func (r *PaymentRepository) GetCancellationFee(ctx context.Context, paymentID uuid.UUID) (*domain.CancellationFee, error) {
	var (
		id       uuid.UUID
		amount   decimal.NullDecimal
		currency sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payment_id, cancellation_fee_amount, cancellation_fee_currency
		FROM payments WHERE payment_id = $1 AND cancellation_fee_amount IS NOT NULL`,
		paymentID,
	).Scan(&id, &amount, &currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetCancellationFee: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetCancellationFee: %w", err)
	}

	fee := domain.NewMoney(amount.Decimal, domain.Currency(currency.String))
	return &domain.CancellationFee{PaymentID: id, Fee: fee}, nil
}

// ListActive returns IDs of payments that are not cancelled, oldest first.
func (r *PaymentRepository) ListActive(ctx context.Context, filter domain.PaymentFilter) ([]uuid.UUID, error) {
	conds := []string{"state = $1"}
	args := []any{domain.PaymentStateCreated}

	if filter.MinAmount != nil {
		args = append(args, *filter.MinAmount)
		conds = append(conds, fmt.Sprintf("amount >= $%d", len(args)))
	}
	if filter.MaxAmount != nil {
		args = append(args, *filter.MaxAmount)
		conds = append(conds, fmt.Sprintf("amount <= $%d", len(args)))
	}
	if filter.Currency != "" {
		args = append(args, filter.Currency)
		conds = append(conds, fmt.Sprintf("currency = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	query := `SELECT payment_id FROM payments WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY id LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows: %w", err)
	}
	return ids, nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var snap domain.PaymentSnapshot
	var feeCurrency sql.NullString

	err := s.Scan(
		&snap.PaymentID, &snap.Type, &snap.DebtorIban, &snap.CreditorIban, &snap.CreditorBic,
		&snap.Amount, &snap.Currency, &snap.Details, &snap.Created, &snap.State,
		&snap.CancellationFeeAmount, &feeCurrency, &snap.Version,
	)
	if err != nil {
		return nil, err
	}
	if feeCurrency.Valid {
		c := domain.Currency(feeCurrency.String)
		snap.CancellationFeeCurrency = &c
	}
	snap.Created = snap.Created.UTC()
	return domain.RestorePayment(snap), nil
}
