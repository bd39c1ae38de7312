package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FeeCurrency is the currency every cancellation fee is charged in.
const FeeCurrency = CurrencyEUR

// CancellationFeePolicy prices a cancellation happening at now for a payment
// created at created.
type CancellationFeePolicy interface {
	Fee(created, now time.Time, t PaymentType, amount Money) Money
}

// HourlyFeePolicy charges a per-type coefficient for every full hour the
// payment has existed: 2h59m counts as 2 hours.
type HourlyFeePolicy struct{}

var hourlyCoefficients = map[PaymentType]decimal.Decimal{
	PaymentTypeOne:   decimal.RequireFromString("0.05"),
	PaymentTypeTwo:   decimal.RequireFromString("0.10"),
	PaymentTypeThree: decimal.RequireFromString("0.15"),
}

func (HourlyFeePolicy) Fee(created, now time.Time, t PaymentType, _ Money) Money {
	if now.Before(created) {
		panic(fmt.Sprintf("HourlyFeePolicy: now %s is before payment creation %s",
			now.Format(time.RFC3339Nano), created.Format(time.RFC3339Nano)))
	}
	coefficient, ok := hourlyCoefficients[t]
	if !ok {
		panic(fmt.Sprintf("HourlyFeePolicy: payment type %q is not supported", t))
	}

	hours := int64(now.Sub(created) / time.Hour)
	return NewMoney(decimal.NewFromInt(hours).Mul(coefficient), FeeCurrency)
}

// FlatFeePolicy charges the same amount for every cancellation.
type FlatFeePolicy struct {
	Amount Money
}

func NewFlatFeePolicy(amount decimal.Decimal) FlatFeePolicy {
	return FlatFeePolicy{Amount: NewMoney(amount, FeeCurrency)}
}

func (p FlatFeePolicy) Fee(_, _ time.Time, _ PaymentType, _ Money) Money {
	return p.Amount
}
