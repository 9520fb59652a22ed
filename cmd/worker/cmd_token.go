package main

import (
	"fmt"

	"github.com/phrazzld/scry-worker/internal/service/auth"
	"github.com/spf13/cobra"
)

func newTokenCommand(root *rootOptions) *cobra.Command {
	var (
		userID string
		admin  bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the operator API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.loadConfig("auth")
			if err != nil {
				return err
			}

			svc, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return err
			}

			token, err := svc.GenerateToken(cmd.Context(), userID, admin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User the token is issued for (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin claim")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
