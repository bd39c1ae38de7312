package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/payments-processing/internal/repository"
)

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply every migrations/*.up.sql file that has not been applied yet.

Examples:
  paymentsctl migrate
  paymentsctl migrate --dir /srv/payments/migrations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if dir == "" {
				dir = repository.FindMigrationsDir()
			}
			applied, err := repository.RunMigrations(cmd.Context(), db, dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "database is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(out, "applied", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default: nearest ./migrations)")
	return cmd
}
