package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeOne   PaymentType = "TYPE1"
	PaymentTypeTwo   PaymentType = "TYPE2"
	PaymentTypeThree PaymentType = "TYPE3"
)

type PaymentTypes []PaymentType

var SupportedPaymentTypes = PaymentTypes{PaymentTypeOne, PaymentTypeTwo, PaymentTypeThree}

func (ts PaymentTypes) String() string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = string(t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeOne, PaymentTypeTwo, PaymentTypeThree:
		return true
	}
	return false
}

type PaymentState string

const (
	PaymentStateCreated   PaymentState = "CREATED"
	PaymentStateCancelled PaymentState = "CANCELLED"
)

// Payment is the aggregate root. Instances come from PaymentFactory or from
// RestorePayment when loading persisted state.
type Payment struct {
	paymentID       uuid.UUID
	paymentType     PaymentType
	debtor          Iban
	creditor        Iban
	creditorBic     *Bic
	amount          Money
	details         *string
	created         time.Time
	state           PaymentState
	cancellationFee *Money
	version         int64
}

func (p *Payment) ID() uuid.UUID       { return p.paymentID }
func (p *Payment) Type() PaymentType   { return p.paymentType }
func (p *Payment) Debtor() Iban        { return p.debtor }
func (p *Payment) Creditor() Iban      { return p.creditor }
func (p *Payment) Amount() Money       { return p.amount }
func (p *Payment) Created() time.Time  { return p.created }
func (p *Payment) State() PaymentState { return p.state }
func (p *Payment) Version() int64      { return p.version }

func (p *Payment) CreditorBic() (Bic, bool) {
	if p.creditorBic == nil {
		return Bic{}, false
	}
	return *p.creditorBic, true
}

func (p *Payment) Details() (string, bool) {
	if p.details == nil {
		return "", false
	}
	return *p.details, true
}

func (p *Payment) CancellationFee() (Money, bool) {
	if p.cancellationFee == nil {
		return Money{}, false
	}
	return *p.cancellationFee, true
}

// CancellationDeadline is midnight at the end of the creation day.
func (p *Payment) CancellationDeadline() time.Time {
	y, m, d := p.created.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, p.created.Location())
}

// Cancel moves the payment to CANCELLED and records the fee charged by
// policy. A cancelled payment or one past its deadline is left untouched.
func (p *Payment) Cancel(now time.Time, policy CancellationFeePolicy) (Money, error) {
	if policy == nil {
		panic("domain: Cancel called without a fee policy")
	}
	if p.state == PaymentStateCancelled {
		return Money{}, newRuleError(ErrAlreadyCancelled, "Cancellation failure. Payment already cancelled")
	}

	deadline := p.CancellationDeadline()
	if now.After(deadline) {
		return Money{}, newRuleError(ErrCancellationWindowClosed,
			"Cancellation failure. Payment cancellation was possible before {0}", deadline.Format(time.RFC3339))
	}

	fee := policy.Fee(p.created, now, p.paymentType, p.amount)
	p.state = PaymentStateCancelled
	p.cancellationFee = &fee
	return fee, nil
}

// PaymentSnapshot is the flat persisted form of a Payment.
type PaymentSnapshot struct {
	PaymentID               uuid.UUID
	Type                    PaymentType
	DebtorIban              string
	CreditorIban            string
	CreditorBic             *string
	Amount                  decimal.Decimal
	Currency                Currency
	Details                 *string
	Created                 time.Time
	State                   PaymentState
	CancellationFeeAmount   decimal.NullDecimal
	CancellationFeeCurrency *Currency
	Version                 int64
}

func (p *Payment) Snapshot() PaymentSnapshot {
	s := PaymentSnapshot{
		PaymentID:    p.paymentID,
		Type:         p.paymentType,
		DebtorIban:   p.debtor.value,
		CreditorIban: p.creditor.value,
		Amount:       p.amount.amount,
		Currency:     p.amount.currency,
		Details:      p.details,
		Created:      p.created,
		State:        p.state,
		Version:      p.version,
	}
	if p.creditorBic != nil {
		v := p.creditorBic.value
		s.CreditorBic = &v
	}
	if p.cancellationFee != nil {
		c := p.cancellationFee.currency
		s.CancellationFeeAmount = decimal.NewNullDecimal(p.cancellationFee.amount)
		s.CancellationFeeCurrency = &c
	}
	return s
}

// RestorePayment rebuilds a Payment from storage. Stored values were
// validated on the way in and are not checked again.
func RestorePayment(s PaymentSnapshot) *Payment {
	p := &Payment{
		paymentID:   s.PaymentID,
		paymentType: s.Type,
		debtor:      Iban{value: s.DebtorIban},
		creditor:    Iban{value: s.CreditorIban},
		amount:      NewMoney(s.Amount, s.Currency),
		details:     s.Details,
		created:     s.Created,
		state:       s.State,
		version:     s.Version,
	}
	if s.CreditorBic != nil {
		p.creditorBic = &Bic{value: *s.CreditorBic}
	}
	if s.CancellationFeeAmount.Valid && s.CancellationFeeCurrency != nil {
		fee := NewMoney(s.CancellationFeeAmount.Decimal, *s.CancellationFeeCurrency)
		p.cancellationFee = &fee
	}
	return p
}

// CancellationFee is the read model behind the cancellation fee query.
type CancellationFee struct {
	PaymentID uuid.UUID
	Fee       Money
}

// PaymentFilter narrows the active payments listing. Zero values disable a
// criterion.
type PaymentFilter struct {
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Currency  Currency
	Limit     int
}
