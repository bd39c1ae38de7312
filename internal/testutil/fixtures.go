package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/josh-kwaku/payments-processing/internal/domain"
)

const (
	DebtorIban   = "DE89370400440532013000"
	CreditorIban = "GB82WEST12345698765432"
	CreditorBic  = "DEUTDEFF500"
)

// FixedClock always returns t.
func FixedClock(t time.Time) domain.Clock {
	return domain.ClockFunc(func() time.Time { return t })
}

// NewPayment builds a valid payment of the given type created at created.
func NewPayment(t *testing.T, typ domain.PaymentType, amount string, created time.Time) *domain.Payment {
	t.Helper()

	b := domain.NewPaymentFactory(FixedClock(created)).Create().
		WithType(string(typ)).
		WithAmount(amount).
		WithDebtor(DebtorIban).
		WithCreditor(CreditorIban)

	switch typ {
	case domain.PaymentTypeOne:
		b.WithCurrency(string(domain.CurrencyUSD)).WithDetails("invoice")
	case domain.PaymentTypeTwo:
		b.WithCurrency(string(domain.CurrencyEUR)).WithDetails("invoice")
	case domain.PaymentTypeThree:
		b.WithCurrency(string(domain.CurrencyEUR)).WithCreditorBic(CreditorBic)
	}

	p, err := b.Build()
	if err != nil {
		t.Fatalf("build payment: %v", err)
	}
	return p
}

// InsertPayment writes p straight to the payments table.
func InsertPayment(t *testing.T, db *sql.DB, p *domain.Payment) {
	t.Helper()

	s := p.Snapshot()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO payments (
			payment_id, type, debtor_iban, creditor_iban, creditor_bic,
			amount, currency, details, created_at, state, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.PaymentID, s.Type, s.DebtorIban, s.CreditorIban, s.CreditorBic,
		s.Amount, s.Currency, s.Details, s.Created, s.State, s.Version,
	)
	if err != nil {
		t.Fatalf("insert payment: %v", err)
	}
}

func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT count(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
