package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studentaffairs/portal/internal/auth"
)

func newTokenCommand() *cobra.Command {
	var (
		subject string
		email   string
		role    string
		ttl     time.Duration
		secret  string
		issuer  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Long: `Mint a bearer token signed with JWT_SECRET, shaped like the tokens the
hosted auth provider issues. Intended for local development and testing.

Example:
  server token --email osa@school.edu --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is required (flag --secret or environment)")
			}
			if issuer == "" {
				issuer = os.Getenv("JWT_ISSUER")
			}
			if subject == "" {
				subject = strings.TrimSpace(email)
			}

			manager := auth.NewJWTManager(secret, ttl, issuer)
			token, err := manager.Generate(subject, email, auth.NormalizeRole(role))
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject (default: the email)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleStudent), "portal role (admin, student)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default: $JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "issuer claim (default: $JWT_ISSUER)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
