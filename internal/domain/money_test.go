package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eur(s string) Money { return NewMoney(decimal.RequireFromString(s), CurrencyEUR) }
func usd(s string) Money { return NewMoney(decimal.RequireFromString(s), CurrencyUSD) }

func TestMoney_Arithmetic(t *testing.T) {
	sum, err := eur("1.10").Add(eur("2.05"))
	require.NoError(t, err)
	assert.True(t, sum.Equal(eur("3.15")))

	diff, err := eur("5").Sub(eur("0.5"))
	require.NoError(t, err)
	assert.True(t, diff.Equal(eur("4.5")))

	assert.True(t, usd("3").Mul(decimal.RequireFromString("0.15")).Equal(usd("0.45")))
}

func TestMoney_RejectsMixedCurrencies(t *testing.T) {
	_, err := eur("1").Add(usd("1"))
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd("1").Sub(eur("1"))
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_Equal(t *testing.T) {
	assert.True(t, eur("1.0").Equal(eur("1")))
	assert.False(t, eur("1").Equal(usd("1")))
	assert.Equal(t, "0.2 EUR", eur("0.2").String())
}

func TestCurrencySet(t *testing.T) {
	set := CurrencySet{CurrencyUSD, CurrencyEUR}
	assert.True(t, set.Contains(CurrencyEUR))
	assert.False(t, set.Contains("GBP"))
	assert.Equal(t, "[USD, EUR]", set.String())
}
