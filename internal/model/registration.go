package model

import (
	"encoding/json"
	"time"
	"unicode/utf8"
)

// RegistrationID uniquely identifies a persisted registration
type RegistrationID string

// Participation is the declared participation mode
type Participation string

const (
	ParticipationSolo Participation = "solo"
	ParticipationTeam Participation = "team"
)

// Team size bounds for team participation
const (
	MinTeamSize = 2
	MaxTeamSize = 4
)

// Member is one entrant listed on a team registration
type Member struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Registration is one persisted entry, either a solo entrant or a team.
// Records are append-only: once stored they are never updated.
type Registration struct {
	ID               RegistrationID `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	University       string         `json:"university"`
	Department       string         `json:"department"`
	Year             string         `json:"year"`
	Participation    Participation  `json:"participation"`
	TeamSize         int            `json:"team_size"`
	TeamName         string         `json:"team_name,omitempty"`
	TeamMembers      []Member       `json:"team_members,omitempty"`
	ProblemStatement string         `json:"problem_statement"`
	Consent          bool           `json:"consent"`
	RegisteredAt     Timestamp      `json:"registered_at"`

	// Set when the submission came from an authenticated session
	SubmittedByEmail  string `json:"submitted_by_email,omitempty"`
	SubmittedByUserID string `json:"submitted_by_user_id,omitempty"`
}

// IsTeam reports whether the registration is for a team
func (r *Registration) IsTeam() bool {
	return r.Participation == ParticipationTeam
}

// ValidUTF8 reports whether every text field is valid UTF-8.
// JSON encoding would otherwise replace bad bytes with U+FFFD.
func (r *Registration) ValidUTF8() bool {
	fields := []string{
		string(r.ID), r.Name, r.Email, r.Phone, r.University, r.Department,
		r.Year, string(r.Participation), r.TeamName, r.ProblemStatement,
		r.SubmittedByEmail, r.SubmittedByUserID,
	}
	for _, m := range r.TeamMembers {
		fields = append(fields, m.Name, m.Email, m.Phone)
	}
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return false
		}
	}
	return true
}

// Timestamp is a UTC instant serialized as ISO-8601 with a Z suffix
type Timestamp time.Time

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// NewTimestamp converts t to UTC
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC())
}

// Time returns the underlying time value
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// String formats the timestamp
func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(timestampLayout)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
// Accepts the native layout as well as any RFC 3339 value the hosted table returns.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	*t = Timestamp(parsed.UTC())
	return nil
}
