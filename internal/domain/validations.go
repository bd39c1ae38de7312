package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/payments-processing/internal/validation"
)

const (
	ibanPattern = `[a-zA-Z]{2}[0-9]{2}[a-zA-Z0-9]{4}[0-9]{7}([a-zA-Z0-9]?){0,16}`
	bicPattern  = `[A-Z]{6,6}[A-Z2-9][A-NP-Z0-9]([A-Z0-9]{3,3}){0,1}`
)

var (
	ibanRegexp = regexp.MustCompile(`^(?:` + ibanPattern + `)$`)
	bicRegexp  = regexp.MustCompile(`^(?:` + bicPattern + `)$`)
)

// Nil pointers below mean the field was never supplied.

func validateAmount(amount, currency *string, expected CurrencySet) validation.Result[Money] {
	if amount == nil || currency == nil {
		return validation.Invalid[Money]("Amount and currency are required")
	}

	value, err := decimal.NewFromString(*amount)
	cur := Currency(*currency)
	if err != nil || !value.IsPositive() || !expected.Contains(cur) {
		return validation.Invalid[Money](
			"Amount {0} {1} is not valid positive decimal with expected currency {2}",
			*amount, *currency, expected,
		)
	}
	return validation.Valid(NewMoney(value, cur))
}

func validateIban(owner string, iban *string) validation.Result[Iban] {
	if iban == nil {
		return validation.Invalid[Iban]("{0} IBAN is required", owner)
	}
	if !ibanRegexp.MatchString(*iban) {
		return validation.Invalid[Iban]("{0} IBAN does not match pattern: {1}", owner, ibanPattern)
	}
	return validation.Valid(Iban{value: *iban})
}

func validateBic(owner string, bic *string) validation.Result[Bic] {
	if bic == nil {
		return validation.Invalid[Bic]("{0} BIC is required", owner)
	}
	if !bicRegexp.MatchString(*bic) {
		return validation.Invalid[Bic]("{0} BIC does not match pattern: {1}", owner, bicPattern)
	}
	return validation.Valid(Bic{value: *bic})
}

func validateDetails(details *string) validation.Result[string] {
	if details == nil {
		return validation.Invalid[string]("Details are required")
	}
	if strings.TrimSpace(*details) == "" {
		return validation.Invalid[string]("Payment details cannot be empty string")
	}
	return validation.Valid(*details)
}

func validateType(paymentType *string) validation.Result[PaymentType] {
	if paymentType == nil {
		return validation.Invalid[PaymentType]("Payment type is required")
	}
	t := PaymentType(*paymentType)
	if !t.IsValid() {
		return validation.Invalid[PaymentType](
			"Payment type {0} is invalid. Supported types {1}.", *paymentType, SupportedPaymentTypes,
		)
	}
	return validation.Valid(t)
}
