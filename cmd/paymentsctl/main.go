// Command paymentsctl is the operator CLI. It applies migrations, issues
// client tokens, shows stored payments and inspects or flushes the outbox.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/payments-processing/internal/config"
	"github.com/josh-kwaku/payments-processing/internal/logging"
	"github.com/josh-kwaku/payments-processing/internal/repository"
)

func main() {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "paymentsctl",
		Short:         "Operator tooling for the payments service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init("paymentsctl", logLevel, "development")
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(outboxCmd())
	rootCmd.AddCommand(paymentCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func openDB(ctx context.Context) (*sql.DB, error) {
	cfg, err := config.LoadDB()
	if err != nil {
		return nil, err
	}
	return repository.Open(ctx, *cfg)
}
