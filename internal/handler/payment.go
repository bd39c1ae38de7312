package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/logging"
	"github.com/josh-kwaku/payments-processing/internal/service/payment"
)

const maxListLimit = 1000

type paymentService interface {
	CreatePayment(ctx context.Context, req payment.CreatePaymentRequest) (uuid.UUID, error)
	CancelPayment(ctx context.Context, rawID string) (domain.Money, error)
	GetCancellationFee(ctx context.Context, rawID string) (*domain.CancellationFee, error)
	ListActivePayments(ctx context.Context, filter domain.PaymentFilter) ([]uuid.UUID, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// createPaymentRequest fields stay nil when absent or null, so the domain
// validators can report them as required.
type createPaymentRequest struct {
	Type         *string `json:"type"`
	DebtorIban   *string `json:"debtor_iban"`
	CreditorIban *string `json:"creditor_iban"`
	CreditorBic  *string `json:"creditor_bic"`
	Amount       *string `json:"amount"`
	Currency     *string `json:"currency"`
	Details      *string `json:"details"`
}

func (r createPaymentRequest) toServiceRequest() payment.CreatePaymentRequest {
	return payment.CreatePaymentRequest{
		Type:         r.Type,
		DebtorIban:   r.DebtorIban,
		CreditorIban: r.CreditorIban,
		CreditorBic:  r.CreditorBic,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Details:      r.Details,
	}
}

type createPaymentResponse struct {
	PaymentID uuid.UUID `json:"payment_id"`
}

type moneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type cancellationFeeDTO struct {
	PaymentID               uuid.UUID `json:"payment_id"`
	CancellationFeeAmount   string    `json:"cancellation_fee_amount"`
	CancellationFeeCurrency string    `json:"cancellation_fee_currency"`
}

type activePaymentsDTO struct {
	PaymentIDs []uuid.UUID `json:"payment_ids"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createPaymentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		log.Warn("failed to decode create payment request", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	id, err := h.payments.CreatePayment(r.Context(), req.toServiceRequest())
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/payments/"+id.String())
	RespondSuccess(w, http.StatusCreated, createPaymentResponse{PaymentID: id})
}

func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	fee, err := h.payments.CancelPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, moneyDTO{
		Amount:   fee.Amount().String(),
		Currency: string(fee.Currency()),
	})
}

func (h *PaymentHandler) GetCancellationFee(w http.ResponseWriter, r *http.Request) {
	fee, err := h.payments.GetCancellationFee(r.Context(), r.PathValue("id"))
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, cancellationFeeDTO{
		PaymentID:               fee.PaymentID,
		CancellationFeeAmount:   fee.Fee.Amount().String(),
		CancellationFeeCurrency: string(fee.Fee.Currency()),
	})
}

func (h *PaymentHandler) ListActivePayments(w http.ResponseWriter, r *http.Request) {
	filter, fields := parsePaymentFilter(r)
	if len(fields) > 0 {
		RespondAppError(w, ErrInvalidQuery, fields)
		return
	}

	ids, err := h.payments.ListActivePayments(r.Context(), filter)
	if err != nil {
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, activePaymentsDTO{PaymentIDs: ids})
}

func parsePaymentFilter(r *http.Request) (domain.PaymentFilter, []FieldError) {
	q := r.URL.Query()
	var filter domain.PaymentFilter
	var errs []FieldError

	parseAmount := func(field string) *decimal.Decimal {
		raw := q.Get(field)
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			errs = append(errs, FieldError{Field: field, Message: "must be a decimal number"})
			return nil
		}
		return &d
	}

	filter.MinAmount = parseAmount("min_amount")
	filter.MaxAmount = parseAmount("max_amount")
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		errs = append(errs, FieldError{Field: "min_amount", Message: "must not exceed max_amount"})
	}

	if raw := q.Get("currency"); raw != "" {
		c := domain.Currency(strings.ToUpper(raw))
		if !(domain.CurrencySet{domain.CurrencyUSD, domain.CurrencyEUR}).Contains(c) {
			errs = append(errs, FieldError{Field: "currency", Message: "must be USD or EUR"})
		}
		filter.Currency = c
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			errs = append(errs, FieldError{Field: "limit", Message: "must be between 1 and 1000"})
		}
		filter.Limit = n
	}

	return filter, errs
}
