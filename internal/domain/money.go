package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// CurrencySet is an ordered set of accepted currencies.
type CurrencySet []Currency

func (s CurrencySet) Contains(c Currency) bool {
	for _, v := range s {
		if v == c {
			return true
		}
	}
	return false
}

func (s CurrencySet) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = string(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Money is an immutable amount in a single currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) Add(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("Add %s to %s: %w", o.currency, m.currency, ErrCurrencyMismatch)
	}
	return Money{amount: m.amount.Add(o.amount), currency: m.currency}, nil
}

func (m Money) Sub(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("Sub %s from %s: %w", o.currency, m.currency, ErrCurrencyMismatch)
	}
	return Money{amount: m.amount.Sub(o.amount), currency: m.currency}, nil
}

func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Equal compares by numeric value, so 1.0 EUR equals 1 EUR.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

func (m Money) String() string {
	return m.amount.String() + " " + string(m.currency)
}
