package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/payments-processing/internal/domain"
	"github.com/josh-kwaku/payments-processing/internal/repository"
)

func paymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Inspect stored payments",
	}
	cmd.AddCommand(paymentShowCmd())
	return cmd
}

type paymentRecord struct {
	PaymentID       uuid.UUID `json:"payment_id"`
	Type            string    `json:"type"`
	State           string    `json:"state"`
	DebtorIban      string    `json:"debtor_iban"`
	CreditorIban    string    `json:"creditor_iban"`
	CreditorBic     *string   `json:"creditor_bic,omitempty"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	Details         *string   `json:"details,omitempty"`
	Created         time.Time `json:"created"`
	CancellationFee *string   `json:"cancellation_fee,omitempty"`
	Version         int64     `json:"version"`
}

func paymentShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <payment-id>",
		Short: "Print a payment as stored, including cancelled ones",
		Long: `Print the stored row of one payment as JSON. Unlike the API this
also shows cancelled payments and the row version.

Examples:
  paymentsctl payment show 3f1c2b9e-8a4d-4c53-9a7e-2d7c1e0b5f10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paymentID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid payment id %q", args[0])
			}

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := repository.NewPaymentRepository(db).GetByPaymentID(cmd.Context(), paymentID)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("payment %s not found", paymentID)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(toPaymentRecord(p))
		},
	}
}

func toPaymentRecord(p *domain.Payment) paymentRecord {
	s := p.Snapshot()
	rec := paymentRecord{
		PaymentID:    s.PaymentID,
		Type:         string(s.Type),
		State:        string(s.State),
		DebtorIban:   s.DebtorIban,
		CreditorIban: s.CreditorIban,
		CreditorBic:  s.CreditorBic,
		Amount:       s.Amount.String(),
		Currency:     string(s.Currency),
		Details:      s.Details,
		Created:      s.Created,
		Version:      s.Version,
	}
	if s.CancellationFeeAmount.Valid && s.CancellationFeeCurrency != nil {
		fee := s.CancellationFeeAmount.Decimal.String() + " " + string(*s.CancellationFeeCurrency)
		rec.CancellationFee = &fee
	}
	return rec
}
