package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/datathon/internal/api/request"
	"github.com/mcoot/datathon/internal/api/response"
)

func newLoginCmd(cfg *Config, client func() *Client) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.SessionRequest{Email: email, Password: password}
			var result response.Session

			if err := client().Post(cmd.Context(), "/api/v1/sessions", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.AccessToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(cfg *Config, client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token != "" {
				if err := client().Delete(cmd.Context(), "/api/v1/sessions"); err != nil {
					return err
				}
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newMeCmd(cfg *Config, client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user and whether they have registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Me

			if err := client().Get(cmd.Context(), "/api/v1/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
