package handler

import "net/http"

const internalErrorMessage = "Something went wrong. We are very sorry for inconvenience."

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

// WithMessage returns a copy of e carrying a request specific message.
func (e *AppError) WithMessage(msg string) *AppError {
	c := *e
	c.Message = msg
	return &c
}

var (
	ErrMissingToken   = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken   = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrInvalidQuery   = &AppError{http.StatusBadRequest, "INVALID_QUERY", "Invalid query parameter"}
	ErrInternalError  = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", internalErrorMessage}

	ErrValidationFailed     = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrInvalidPaymentID     = &AppError{http.StatusBadRequest, "INVALID_PAYMENT_ID", "Payment ID is not valid UUID"}
	ErrPaymentNotFound      = &AppError{http.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found"}
	ErrCancellationRejected = &AppError{http.StatusUnprocessableEntity, "CANCELLATION_REJECTED", "Cancellation failure"}
	ErrVersionConflict      = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed"}

	ErrInvalidSignature = &AppError{http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature is invalid"}
)
