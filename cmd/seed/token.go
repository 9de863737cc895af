package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oksasatya/clientsphere/pkg/helpers"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var userID, email, name string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				userID = uuid.NewString()
			}
			jwt := helpers.NewJWTManager(opts.cfg.JWTAccessSecret, opts.cfg.AccessTTL)
			token, exp, err := jwt.GenerateAccessToken(userID, email, name, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user_id=%s expires=%s\n%s\n", userID, exp.Format("2006-01-02T15:04:05Z07:00"), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "subject user id (random when empty)")
	cmd.Flags().StringVar(&email, "email", "dev@example.com", "email claim")
	cmd.Flags().StringVar(&name, "name", "Developer", "name claim")
	return cmd
}
