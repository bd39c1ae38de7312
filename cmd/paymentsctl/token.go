package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/payments-processing/internal/auth"
	"github.com/josh-kwaku/payments-processing/internal/config"
)

func tokenCmd() *cobra.Command {
	var (
		name string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <client-id>",
		Short: "Issue a bearer token for an API client",
		Long: `Sign a JWT for the given client with JWT_SECRET.

Examples:
  paymentsctl token acme --name "Acme Ltd"
  paymentsctl token acme --ttl 720h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAuth()
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.TokenTTL
			}

			token, err := auth.GenerateToken(args[0], name, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: JWT_TOKEN_TTL)")
	return cmd
}
