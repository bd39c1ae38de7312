package domain

import (
	"errors"

	"github.com/josh-kwaku/payments-processing/internal/errmsg"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrVersionConflict          = errors.New("optimistic lock conflict")
	ErrCurrencyMismatch         = errors.New("currency mismatch")
	ErrAlreadyCancelled         = errors.New("payment already cancelled")
	ErrCancellationWindowClosed = errors.New("cancellation window closed")
	ErrInvalidPaymentID         = errors.New("invalid payment id")
	ErrUnknownEvent             = errors.New("unknown event type")
	ErrMalformedEvent           = errors.New("malformed event")
)

// ValidationError carries every message produced while validating input.
type ValidationError struct {
	Messages errmsg.List
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Messages.String()
}

// RuleError is a business rule violation with a single user-facing message.
// Err is the sentinel it matches with errors.Is.
type RuleError struct {
	Err     error
	Message errmsg.Message
}

func (e *RuleError) Error() string {
	return e.Message.String()
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

func newRuleError(err error, format string, args ...any) *RuleError {
	return &RuleError{Err: err, Message: errmsg.New(format, args...)}
}

func PaymentDoesNotExist(paymentID any) *RuleError {
	return newRuleError(ErrNotFound, "Payment with ID: {0} does not exist.", paymentID)
}

func CancellationNotFound(paymentID any) *RuleError {
	return newRuleError(ErrNotFound, "Payment with id {0} not found", paymentID)
}

func InvalidPaymentID(raw string) *RuleError {
	return newRuleError(ErrInvalidPaymentID, "Payment ID {0} is not valid UUID", raw)
}
