package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := DefaultConfig()
	var client *Client

	rootCmd := &cobra.Command{
		Use:   "datactl",
		Short: "CLI tool for the Datathon registration API",
		Long: `datactl is a CLI tool for operating the Datathon registration site.

It checks server health, signs in, submits registrations through the JSON API
and reads the records a local storage backend has written.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: DATACTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Access token (env: DATACTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: DATACTL_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Subcommands read the client lazily; it exists once PersistentPreRunE has run
	clientFn := func() *Client { return client }

	// Add subcommands
	rootCmd.AddCommand(newHealthCmd(cfg, clientFn))
	rootCmd.AddCommand(newLoginCmd(cfg, clientFn))
	rootCmd.AddCommand(newLogoutCmd(cfg, clientFn))
	rootCmd.AddCommand(newMeCmd(cfg, clientFn))
	rootCmd.AddCommand(newSubmitCmd(cfg, clientFn))
	rootCmd.AddCommand(newRecordsCmd(cfg))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
