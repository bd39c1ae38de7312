package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/logging"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

// RespondDomainError maps service errors to the error table. Anything it does
// not recognise is logged and answered with an opaque 500.
func RespondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		RespondAppError(w, ErrValidationFailed, vErr.Messages.Strings())
		return
	}

	var ruleErr *domain.RuleError
	if errors.As(err, &ruleErr) {
		msg := ruleErr.Message.String()
		switch {
		case errors.Is(ruleErr, domain.ErrInvalidPaymentID):
			RespondAppError(w, ErrInvalidPaymentID.WithMessage(msg), nil)
			return
		case errors.Is(ruleErr, domain.ErrNotFound):
			RespondAppError(w, ErrPaymentNotFound.WithMessage(msg), nil)
			return
		case errors.Is(ruleErr, domain.ErrAlreadyCancelled),
			errors.Is(ruleErr, domain.ErrCancellationWindowClosed):
			RespondAppError(w, ErrCancellationRejected.WithMessage(msg), nil)
			return
		}
	}

	if errors.Is(err, domain.ErrVersionConflict) {
		RespondAppError(w, ErrVersionConflict, nil)
		return
	}

	logging.FromContext(ctx).Error("unhandled error", "error", err)
	RespondAppError(w, ErrInternalError, nil)
}
