package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/logging"
	"github.com/josh-kwaku/payments-processing/internal/metrics"
)

type paymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, paymentID uuid.UUID) (*domain.Payment, error)
	Update(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error
	GetCancellationFee(ctx context.Context, paymentID uuid.UUID) (*domain.CancellationFee, error)
	ListActive(ctx context.Context, filter domain.PaymentFilter) ([]uuid.UUID, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, tx *sql.Tx, event domain.PaymentEvent) error
}

type txRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type Service struct {
	factory   *domain.PaymentFactory
	payments  paymentRepo
	publisher eventPublisher
	policy    domain.CancellationFeePolicy
	clock     domain.Clock
	db        txRunner
}

func NewService(
	payments paymentRepo,
	publisher eventPublisher,
	policy domain.CancellationFeePolicy,
	clock domain.Clock,
	db txRunner,
) *Service {
	return &Service{
		factory:   domain.NewPaymentFactory(clock),
		payments:  payments,
		publisher: publisher,
		policy:    policy,
		clock:     clock,
		db:        db,
	}
}

// CreatePaymentRequest holds raw client input. A nil field was not supplied.
type CreatePaymentRequest struct {
	Type         *string
	DebtorIban   *string
	CreditorIban *string
	CreditorBic  *string
	Amount       *string
	Currency     *string
	Details      *string
}

func (r CreatePaymentRequest) builder(f *domain.PaymentFactory) *domain.PaymentBuilder {
	b := f.Create()
	set := func(v *string, with func(string) *domain.PaymentBuilder) {
		if v != nil {
			with(*v)
		}
	}
	set(r.Type, b.WithType)
	set(r.DebtorIban, b.WithDebtor)
	set(r.CreditorIban, b.WithCreditor)
	set(r.CreditorBic, b.WithCreditorBic)
	set(r.Amount, b.WithAmount)
	set(r.Currency, b.WithCurrency)
	set(r.Details, b.WithDetails)
	return b
}

// CreatePayment validates and stores a new payment. TYPE1 and TYPE2 payments
// also emit PaymentCreated in the same transaction.
func (s *Service) CreatePayment(ctx context.Context, req CreatePaymentRequest) (uuid.UUID, error) {
	log := logging.FromContext(ctx)

	p, err := req.builder(s.factory).Build()
	if err != nil {
		return uuid.Nil, err
	}

	err = s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.payments.Create(ctx, tx, p); err != nil {
			return err
		}
		if !publishesCreation(p.Type()) {
			return nil
		}
		return s.publisher.Publish(ctx, tx, domain.NewPaymentCreated(p.ID(), p.Type()))
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("CreatePayment: %w", err)
	}

	metrics.IncPaymentCreated(string(p.Type()))
	log.Info("payment created",
		"payment_id", p.ID(),
		"type", p.Type(),
		"amount", p.Amount().String(),
	)
	return p.ID(), nil
}

func publishesCreation(t domain.PaymentType) bool {
	return t == domain.PaymentTypeOne || t == domain.PaymentTypeTwo
}

// CancelPayment cancels the payment and returns the fee charged. The row is
// locked for the whole transaction, so concurrent cancels are serialized and
// only the first succeeds.
func (s *Service) CancelPayment(ctx context.Context, rawID string) (domain.Money, error) {
	log := logging.FromContext(ctx)

	paymentID, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Money{}, domain.InvalidPaymentID(rawID)
	}

	var (
		fee         domain.Money
		paymentType domain.PaymentType
	)
	err = s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		p, err := s.payments.GetForUpdate(ctx, tx, paymentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.PaymentDoesNotExist(paymentID)
			}
			return err
		}

		fee, err = p.Cancel(s.clock.Now(), s.policy)
		if err != nil {
			return err
		}
		paymentType = p.Type()

		if err := s.payments.Update(ctx, tx, p); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, tx, domain.NewPaymentCancelled(p.ID()))
	})
	if err != nil {
		var ruleErr *domain.RuleError
		if errors.As(err, &ruleErr) {
			log.Info("cancellation rejected", "payment_id", paymentID, "reason", ruleErr.Message.String())
			return domain.Money{}, ruleErr
		}
		return domain.Money{}, fmt.Errorf("CancelPayment: %w", err)
	}

	metrics.IncPaymentCancelled(string(paymentType))
	log.Info("payment cancelled", "payment_id", paymentID, "fee", fee.String())
	return fee, nil
}

// GetCancellationFee returns the fee of a cancelled payment. Unknown,
// malformed and still active IDs are all reported as not found.
func (s *Service) GetCancellationFee(ctx context.Context, rawID string) (*domain.CancellationFee, error) {
	paymentID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, domain.CancellationNotFound(rawID)
	}

	fee, err := s.payments.GetCancellationFee(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.CancellationNotFound(paymentID)
		}
		return nil, fmt.Errorf("GetCancellationFee: %w", err)
	}
	return fee, nil
}

func (s *Service) ListActivePayments(ctx context.Context, filter domain.PaymentFilter) ([]uuid.UUID, error) {
	ids, err := s.payments.ListActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListActivePayments: %w", err)
	}
	return ids, nil
}
