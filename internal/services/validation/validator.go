// Package validation checks a raw registration form and normalizes it into
// a model.Registration. Checks short-circuit: the first failing rule is the
// one reported.
package validation

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/datathon/internal/model"
)

// Form field names
const (
	FieldName             = "name"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldUniversity       = "university"
	FieldDepartment       = "department"
	FieldYear             = "year"
	FieldParticipation    = "participation"
	FieldTeamSize         = "team_size"
	FieldTeamName         = "team_name"
	FieldTeamMembers      = "team_members"
	FieldProblemStatement = "problem_statement"
	FieldConsent          = "consent"
)

// MinPhoneDigits is the fewest digits a phone number may reduce to
const MinPhoneDigits = 10

// Length caps, in characters
const (
	MaxFieldLength            = 200
	MaxProblemStatementLength = 5000
	MaxTeamMembersLength      = 8000
)

// maxLengths overrides MaxFieldLength per field
var maxLengths = map[string]int{
	FieldProblemStatement: MaxProblemStatementLength,
	FieldTeamMembers:      MaxTeamMembersLength,
}

// User-facing messages
const (
	MsgRequired      = "Please fill all required fields."
	MsgInvalidEmail  = "Please enter a valid email address."
	MsgInvalidPhone  = "Please enter a valid phone number (10 digits)."
	MsgParticipation = "Please choose solo or team participation."
	MsgTeamSize      = "Please select your team size."
	MsgTeamName      = "Please enter a team name."
	MsgMemberDetails = "Please fill all team member details."
	MsgInvalidText   = "Please remove unsupported characters."
	msgTooLong       = "Please keep this field under %d characters."
	msgMemberName    = "Please enter Member %d name."
	msgMemberEmail   = "Please enter a valid email for Member %d."
)

// requiredFields are checked for presence, in order
var requiredFields = []string{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldUniversity,
	FieldDepartment,
	FieldYear,
	FieldParticipation,
	FieldProblemStatement,
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError describes the first rule a form failed
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Form is a raw submitted field set
type Form map[string]string

// FormFromValues flattens multi-valued form input, keeping the first value of each key
func FormFromValues(values map[string][]string) Form {
	f := make(Form, len(values))
	for k, v := range values {
		if len(v) > 0 {
			f[k] = v[0]
		}
	}
	return f
}

// Get returns the trimmed value for key
func (f Form) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// IsValidEmail reports whether s has the local@domain.tld shape
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// PhoneDigits counts the decimal digits in s
func PhoneDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Validate checks form and returns the normalized record, or the first failure.
// ID, timestamp and submitter fields are left for the caller to fill.
func Validate(form Form) (*model.Registration, *FieldError) {
	if ferr := checkText(form); ferr != nil {
		return nil, ferr
	}

	for _, field := range requiredFields {
		if form.Get(field) == "" {
			return nil, &FieldError{Field: field, Message: MsgRequired}
		}
	}

	email := form.Get(FieldEmail)
	if !IsValidEmail(email) {
		return nil, &FieldError{Field: FieldEmail, Message: MsgInvalidEmail}
	}

	phone := form.Get(FieldPhone)
	if PhoneDigits(phone) < MinPhoneDigits {
		return nil, &FieldError{Field: FieldPhone, Message: MsgInvalidPhone}
	}

	participation := model.Participation(strings.ToLower(form.Get(FieldParticipation)))
	if participation != model.ParticipationSolo && participation != model.ParticipationTeam {
		return nil, &FieldError{Field: FieldParticipation, Message: MsgParticipation}
	}

	reg := &model.Registration{
		Name:             form.Get(FieldName),
		Email:            strings.ToLower(email),
		Phone:            phone,
		University:       form.Get(FieldUniversity),
		Department:       form.Get(FieldDepartment),
		Year:             form.Get(FieldYear),
		Participation:    participation,
		TeamSize:         1,
		ProblemStatement: form.Get(FieldProblemStatement),
		Consent:          parseBool(form.Get(FieldConsent)),
	}

	if participation == model.ParticipationSolo {
		return reg, nil
	}

	size, err := strconv.Atoi(form.Get(FieldTeamSize))
	if err != nil || size < model.MinTeamSize || size > model.MaxTeamSize {
		return nil, &FieldError{Field: FieldTeamSize, Message: MsgTeamSize}
	}

	teamName := form.Get(FieldTeamName)
	if teamName == "" {
		return nil, &FieldError{Field: FieldTeamName, Message: MsgTeamName}
	}

	members, ok := parseMembers(form, size, reg)
	if !ok || len(members) != size {
		return nil, &FieldError{Field: FieldTeamMembers, Message: MsgMemberDetails}
	}

	for i := range members {
		if tooLong(members[i].Name, MaxFieldLength) || tooLong(members[i].Email, MaxFieldLength) || tooLong(members[i].Phone, MaxFieldLength) {
			return nil, &FieldError{Field: FieldTeamMembers, Message: fmt.Sprintf(msgTooLong, MaxFieldLength)}
		}
		if members[i].Name == "" {
			return nil, &FieldError{Field: FieldTeamMembers, Message: fmt.Sprintf(msgMemberName, i+1)}
		}
		if !IsValidEmail(members[i].Email) {
			return nil, &FieldError{Field: FieldTeamMembers, Message: fmt.Sprintf(msgMemberEmail, i+1)}
		}
		members[i].Email = strings.ToLower(members[i].Email)
	}

	reg.TeamSize = size
	reg.TeamName = teamName
	reg.TeamMembers = members
	return reg, nil
}

// checkText rejects values that are not valid UTF-8 or exceed their length
// cap. Fields are visited in name order so the reported one is stable.
func checkText(form Form) *FieldError {
	keys := slices.Sorted(maps.Keys(form))
	for _, field := range keys {
		if !utf8.ValidString(form[field]) {
			return &FieldError{Field: field, Message: MsgInvalidText}
		}
	}
	for _, field := range keys {
		limit, ok := maxLengths[field]
		if !ok {
			limit = MaxFieldLength
		}
		if tooLong(form.Get(field), limit) {
			return &FieldError{Field: field, Message: fmt.Sprintf(msgTooLong, limit)}
		}
	}
	return nil
}

func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// parseMembers reads the team_members JSON array. Without it, falls back to
// the individual memberN_name / memberN_email inputs a no-script browser
// posts, where a blank member 1 defaults to the person filling in the form.
func parseMembers(form Form, size int, reg *model.Registration) ([]model.Member, bool) {
	var members []model.Member

	if raw := form.Get(FieldTeamMembers); raw != "" {
		if err := json.Unmarshal([]byte(raw), &members); err != nil {
			return nil, false
		}
	} else {
		for i := 1; i <= size; i++ {
			members = append(members, model.Member{
				Name:  form.Get(fmt.Sprintf("member%d_name", i)),
				Email: form.Get(fmt.Sprintf("member%d_email", i)),
				Phone: form.Get(fmt.Sprintf("member%d_phone", i)),
			})
		}
		if members[0].Name == "" && members[0].Email == "" {
			members[0].Name = reg.Name
			members[0].Email = reg.Email
		}
	}

	for i := range members {
		members[i].Name = strings.TrimSpace(members[i].Name)
		members[i].Email = strings.TrimSpace(members[i].Email)
		members[i].Phone = strings.TrimSpace(members[i].Phone)
	}
	return members, true
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
