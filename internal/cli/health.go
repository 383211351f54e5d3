package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/datathon/internal/api/response"
)

func newHealthCmd(cfg *Config, client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health and storage connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Health

			if err := client().Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
