package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zaptalkhq/zaptalk/internal/auth"
	"github.com/zaptalkhq/zaptalk/internal/config"
)

// newTokenCommand mints a JWT accepted by the /admin endpoints, signed
// with the configured auth secret. Meant for operators and for wiring
// up monitoring against the diagnostic surface.
func newTokenCommand() *cobra.Command {
	var userID string
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT for the authenticated admin endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if expiresIn <= 0 {
				expiresIn, err = time.ParseDuration(cfg.Auth.JWTExpiresIn)
				if err != nil {
					return fmt.Errorf("parse auth.jwt_expires_in: %w", err)
				}
			}
			signed, expiresAt, err := auth.GenerateToken(userID, cfg.Auth.JWTSecret, expiresIn)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id embedded in the token claims")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "token lifetime, defaults to auth.jwt_expires_in")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
