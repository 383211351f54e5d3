package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/datathon/internal/api/request"
	"github.com/mcoot/datathon/internal/api/response"
)

// ErrAlreadyRegistered is returned by submit when the server blocks a repeat registration
var ErrAlreadyRegistered = errors.New("already registered")

func newSubmitCmd(cfg *Config, client func() *Client) *cobra.Command {
	var (
		req     request.RegistrationRequest
		members []string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a registration",
		Long: `Submit a registration through the JSON API.

Fields come from flags, or from a JSON file with the same field names as the
web form (--file). Team members are given as "Name <email>".`,
		Example: `  datactl submit --name Ann --email ann@x.com --phone 1234567890 \
    --university X --department CS --year 3 --problem PS2
  datactl submit --participation team --team-name Ants --team-size 2 \
    --member "Ann <ann@x.com>" --member "Bea <bea@x.com>" ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				loaded, err := loadRequest(file)
				if err != nil {
					return err
				}
				req = loaded
			} else {
				parsed, err := parseMembers(members)
				if err != nil {
					return err
				}
				req.TeamMembers = parsed
			}

			var result response.Registration
			err := client().Post(cmd.Context(), "/api/v1/registrations", req, &result)
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Code == "ALREADY_REGISTERED" {
				return fmt.Errorf("%w: %s", ErrAlreadyRegistered, apiErr.Message)
			}
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&file, "file", "", "Read the registration from a JSON file")
	flags.StringVar(&req.Name, "name", "", "Full name")
	flags.StringVar(&req.Email, "email", "", "Contact email")
	flags.StringVar(&req.Phone, "phone", "", "Phone number")
	flags.StringVar(&req.University, "university", "", "University")
	flags.StringVar(&req.Department, "department", "", "Department")
	flags.StringVar(&req.Year, "year", "", "Year of study")
	flags.StringVar(&req.Participation, "participation", "solo", "solo or team")
	flags.StringVar(&req.TeamName, "team-name", "", "Team name (team only)")
	flags.IntVar((*int)(&req.TeamSize), "team-size", 0, "Team size, 2 to 4 (team only)")
	flags.StringArrayVar(&members, "member", nil, `Team member as "Name <email>"; repeat per member`)
	flags.StringVar(&req.ProblemStatement, "problem", "", "Problem statement")
	flags.BoolVar(&req.Consent, "consent", false, "Agree to be contacted")
	cmd.MarkFlagsMutuallyExclusive("file", "name")

	return cmd
}

func loadRequest(path string) (request.RegistrationRequest, error) {
	var req request.RegistrationRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}

func parseMembers(values []string) ([]request.Member, error) {
	if len(values) == 0 {
		return nil, nil
	}
	members := make([]request.Member, 0, len(values))
	for _, v := range values {
		addr, err := mail.ParseAddress(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --member %q: want \"Name <email>\"", v)
		}
		members = append(members, request.Member{Name: addr.Name, Email: addr.Address})
	}
	return members, nil
}
