package request

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/mcoot/datathon/internal/services/validation"
)

// Member is one team member in a registration request
type Member struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ErrInvalidSize is returned when a size is neither a number nor a numeric string
var ErrInvalidSize = errors.New("size must be a whole number")

// Size is a count sent either as a JSON number or as a numeric string, the
// way the HTML form posts it. An empty string means unset.
type Size int

// UnmarshalJSON implements json.Unmarshaler
func (s *Size) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		raw = strings.TrimSpace(str)
		if raw == "" {
			*s = 0
			return nil
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return ErrInvalidSize
	}
	*s = Size(n)
	return nil
}

// RegistrationRequest is the request body for submitting a registration.
// Field names match the HTML form.
type RegistrationRequest struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	University       string   `json:"university"`
	Department       string   `json:"department"`
	Year             string   `json:"year"`
	Participation    string   `json:"participation"`
	TeamSize         Size     `json:"team_size,omitempty"`
	TeamName         string   `json:"team_name,omitempty"`
	TeamMembers      []Member `json:"team_members,omitempty"`
	ProblemStatement string   `json:"problem_statement"`
	Consent          bool     `json:"consent"`
}

// Form converts the request into the raw field set the validator reads
func (r RegistrationRequest) Form() validation.Form {
	form := validation.Form{
		validation.FieldName:             r.Name,
		validation.FieldEmail:            r.Email,
		validation.FieldPhone:            r.Phone,
		validation.FieldUniversity:       r.University,
		validation.FieldDepartment:       r.Department,
		validation.FieldYear:             r.Year,
		validation.FieldParticipation:    r.Participation,
		validation.FieldTeamName:         r.TeamName,
		validation.FieldProblemStatement: r.ProblemStatement,
		validation.FieldConsent:          strconv.FormatBool(r.Consent),
	}
	if r.TeamSize != 0 {
		form[validation.FieldTeamSize] = strconv.Itoa(int(r.TeamSize))
	}
	if r.TeamMembers != nil {
		// Cannot fail for string fields
		members, _ := json.Marshal(r.TeamMembers)
		form[validation.FieldTeamMembers] = string(members)
	}
	return form
}

// SessionRequest is the request body for signing in
type SessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the request body for exchanging a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
