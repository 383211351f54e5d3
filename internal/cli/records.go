package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/datathon/internal/config"
	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/storage/local"
)

func newRecordsCmd(cfg *Config) *cobra.Command {
	var path, email string

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List registrations written by the local storage backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := local.New(path).ReadAll(cmd.Context())
			if err != nil {
				return err
			}

			if email != "" {
				records = filterByIdentity(records, email)
			}
			if records == nil {
				records = []*model.Registration{}
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(records)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", getEnvOrDefault("LOCAL_STORAGE_PATH", config.DefaultLocalPath), "JSON-lines file (env: LOCAL_STORAGE_PATH)")
	cmd.Flags().StringVar(&email, "email", "", "Only show records for this identity")

	return cmd
}

// filterByIdentity keeps records carrying email in either identity field
func filterByIdentity(records []*model.Registration, email string) []*model.Registration {
	var out []*model.Registration
	for _, r := range records {
		if strings.EqualFold(r.SubmittedByEmail, email) || strings.EqualFold(r.Email, email) {
			out = append(out, r)
		}
	}
	return out
}
