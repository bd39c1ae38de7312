package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   *string
		currency *string
		expected CurrencySet
		wantErr  string
	}{
		{name: "valid", amount: ptr("10.25"), currency: ptr("USD"), expected: CurrencySet{CurrencyUSD}},
		{name: "missing amount", currency: ptr("USD"), expected: CurrencySet{CurrencyUSD}, wantErr: "Amount and currency are required"},
		{name: "missing currency", amount: ptr("1"), expected: CurrencySet{CurrencyUSD}, wantErr: "Amount and currency are required"},
		{
			name: "zero", amount: ptr("0"), currency: ptr("USD"), expected: CurrencySet{CurrencyUSD},
			wantErr: "Amount 0 USD is not valid positive decimal with expected currency [USD]",
		},
		{
			name: "negative", amount: ptr("-5"), currency: ptr("EUR"), expected: CurrencySet{CurrencyEUR},
			wantErr: "Amount -5 EUR is not valid positive decimal with expected currency [EUR]",
		},
		{
			name: "not a number", amount: ptr("ten"), currency: ptr("USD"), expected: CurrencySet{CurrencyUSD},
			wantErr: "Amount ten USD is not valid positive decimal with expected currency [USD]",
		},
		{
			name: "unexpected currency", amount: ptr("10"), currency: ptr("EUR"), expected: CurrencySet{CurrencyUSD},
			wantErr: "Amount 10 EUR is not valid positive decimal with expected currency [USD]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, errs := validateAmount(tc.amount, tc.currency, tc.expected).Get()
			if tc.wantErr == "" {
				require.Nil(t, errs)
				assert.Equal(t, Currency(*tc.currency), m.Currency())
				assert.Equal(t, *tc.amount, m.Amount().String())
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.wantErr, errs[0].String())
		})
	}
}

func TestValidateIban(t *testing.T) {
	tests := []struct {
		name    string
		iban    *string
		wantErr string
	}{
		{name: "german iban", iban: ptr("DE89370400440532013000")},
		{name: "lowercase country", iban: ptr("gb82WEST12345698765432")},
		{name: "minimum length", iban: ptr("PL12ABCD1234567")},
		{name: "missing", wantErr: "Debtor IBAN is required"},
		{name: "too short", iban: ptr("DE8937040044"), wantErr: "Debtor IBAN does not match pattern: " + ibanPattern},
		{name: "too long", iban: ptr("DE89370400440532013000123456789012"), wantErr: "Debtor IBAN does not match pattern: " + ibanPattern},
		{name: "digits in country", iban: ptr("1289370400440532013000"), wantErr: "Debtor IBAN does not match pattern: " + ibanPattern},
		{name: "embedded in text", iban: ptr("xx DE89370400440532013000"), wantErr: "Debtor IBAN does not match pattern: " + ibanPattern},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, errs := validateIban("Debtor", tc.iban).Get()
			if tc.wantErr == "" {
				require.Nil(t, errs)
				assert.Equal(t, *tc.iban, v.String())
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.wantErr, errs[0].String())
		})
	}
}

func TestValidateBic(t *testing.T) {
	tests := []struct {
		name    string
		bic     *string
		wantErr string
	}{
		{name: "eight characters", bic: ptr("DEUTDEFF")},
		{name: "with branch", bic: ptr("DEUTDEFF500")},
		{name: "missing", wantErr: "Creditor BIC is required"},
		{name: "lowercase", bic: ptr("deutdeff"), wantErr: "Creditor BIC does not match pattern: " + bicPattern},
		{name: "location code 1", bic: ptr("DEUTDE1F"), wantErr: "Creditor BIC does not match pattern: " + bicPattern},
		{name: "location letter O", bic: ptr("DEUTDEFO"), wantErr: "Creditor BIC does not match pattern: " + bicPattern},
		{name: "partial branch", bic: ptr("DEUTDEFF50"), wantErr: "Creditor BIC does not match pattern: " + bicPattern},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, errs := validateBic("Creditor", tc.bic).Get()
			if tc.wantErr == "" {
				require.Nil(t, errs)
				assert.Equal(t, *tc.bic, v.String())
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.wantErr, errs[0].String())
		})
	}
}

func TestValidateDetails(t *testing.T) {
	_, errs := validateDetails(nil).Get()
	require.Len(t, errs, 1)
	assert.Equal(t, "Details are required", errs[0].String())

	_, errs = validateDetails(ptr("   ")).Get()
	require.Len(t, errs, 1)
	assert.Equal(t, "Payment details cannot be empty string", errs[0].String())

	v, errs := validateDetails(ptr("invoice 42")).Get()
	require.Nil(t, errs)
	assert.Equal(t, "invoice 42", v)
}

func TestValidateType(t *testing.T) {
	_, errs := validateType(nil).Get()
	require.Len(t, errs, 1)
	assert.Equal(t, "Payment type is required", errs[0].String())

	_, errs = validateType(ptr("TYPE4")).Get()
	require.Len(t, errs, 1)
	assert.Equal(t, "Payment type TYPE4 is invalid. Supported types [TYPE1, TYPE2, TYPE3].", errs[0].String())

	v, errs := validateType(ptr("TYPE3")).Get()
	require.Nil(t, errs)
	assert.Equal(t, PaymentTypeThree, v)
}
