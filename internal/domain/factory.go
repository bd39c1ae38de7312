package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-processing/internal/validation"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var basicCurrencies = map[PaymentType]CurrencySet{
	PaymentTypeOne: {CurrencyUSD},
	PaymentTypeTwo: {CurrencyEUR},
}

var typeThreeCurrencies = CurrencySet{CurrencyUSD, CurrencyEUR}

type PaymentFactory struct {
	clock Clock
}

func NewPaymentFactory(clock Clock) *PaymentFactory {
	return &PaymentFactory{clock: clock}
}

// Create starts a builder. Fields that are never set count as missing.
func (f *PaymentFactory) Create() *PaymentBuilder {
	return &PaymentBuilder{factory: f}
}

type PaymentBuilder struct {
	factory     *PaymentFactory
	paymentType *string
	debtor      *string
	creditor    *string
	creditorBic *string
	amount      *string
	currency    *string
	details     *string
}

func (b *PaymentBuilder) WithType(v string) *PaymentBuilder {
	b.paymentType = &v
	return b
}

func (b *PaymentBuilder) WithDebtor(v string) *PaymentBuilder {
	b.debtor = &v
	return b
}

func (b *PaymentBuilder) WithCreditor(v string) *PaymentBuilder {
	b.creditor = &v
	return b
}

func (b *PaymentBuilder) WithCreditorBic(v string) *PaymentBuilder {
	b.creditorBic = &v
	return b
}

func (b *PaymentBuilder) WithAmount(v string) *PaymentBuilder {
	b.amount = &v
	return b
}

func (b *PaymentBuilder) WithCurrency(v string) *PaymentBuilder {
	b.currency = &v
	return b
}

func (b *PaymentBuilder) WithDetails(v string) *PaymentBuilder {
	b.details = &v
	return b
}

// Build validates the type first. The remaining fields are validated
// together so every problem is reported at once.
func (b *PaymentBuilder) Build() (*Payment, error) {
	paymentType, errs := validateType(b.paymentType).Get()
	if errs != nil {
		return nil, &ValidationError{Messages: errs}
	}

	var result validation.Result[*Payment]
	switch paymentType {
	case PaymentTypeOne, PaymentTypeTwo:
		result = b.buildBasic(paymentType)
	case PaymentTypeThree:
		result = b.buildTypeThree()
	}

	p, errs := result.Get()
	if errs != nil {
		return nil, &ValidationError{Messages: errs}
	}
	return p, nil
}

func (b *PaymentBuilder) buildBasic(t PaymentType) validation.Result[*Payment] {
	return validation.Combine4(
		validateAmount(b.amount, b.currency, basicCurrencies[t]),
		validateIban("Debtor", b.debtor),
		validateIban("Creditor", b.creditor),
		validateDetails(b.details),
		func(amount Money, debtor, creditor Iban, details string) *Payment {
			return b.factory.newPayment(t, debtor, creditor, nil, &details, amount)
		},
	)
}

func (b *PaymentBuilder) buildTypeThree() validation.Result[*Payment] {
	return validation.Combine4(
		validateAmount(b.amount, b.currency, typeThreeCurrencies),
		validateIban("Debtor", b.debtor),
		validateIban("Creditor", b.creditor),
		validateBic("Creditor", b.creditorBic),
		func(amount Money, debtor, creditor Iban, bic Bic) *Payment {
			return b.factory.newPayment(PaymentTypeThree, debtor, creditor, &bic, nil, amount)
		},
	)
}

func (f *PaymentFactory) newPayment(t PaymentType, debtor, creditor Iban, bic *Bic, details *string, amount Money) *Payment {
	return &Payment{
		paymentID:   uuid.New(),
		paymentType: t,
		debtor:      debtor,
		creditor:    creditor,
		creditorBic: bic,
		amount:      amount,
		details:     details,
		created:     f.clock.Now(),
		state:       PaymentStateCreated,
	}
}
