package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/payments-processing/internal/config"
	"github.com/josh-kwaku/payments-processing/internal/outbox"
	"github.com/josh-kwaku/payments-processing/internal/repository"
)

func outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and deliver outbox events",
	}
	cmd.AddCommand(outboxPendingCmd())
	cmd.AddCommand(outboxFlushCmd())
	return cmd
}

func outboxPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Print the number of undelivered events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := repository.NewOutboxRepository(db).CountPending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func outboxFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Deliver every pending event through the configured conduit",
		Long: `Deliver pending events oldest first until the outbox is empty or a
delivery fails. Uses the same OUTBOX_CONDUIT settings as the API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOutbox()
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			logger := slog.Default().With("component", "outbox")
			conduit, closeConduit, err := outbox.NewConduit(*cfg, logger)
			if err != nil {
				return err
			}
			defer closeConduit()

			sender := outbox.NewSender(repository.NewOutboxRepository(db), repository.NewDB(db), conduit, logger, cfg.PollInterval)
			n, err := sender.Drain(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "delivered %d events\n", n)
			return err
		},
	}
}
