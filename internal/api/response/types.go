package response

import (
	"time"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/auth"
)

// Health is the health check payload
type Health struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Connected bool   `json:"connected"`
}

// Identity represents an authenticated user in API responses
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// IdentityFromModel converts a model.Identity to a response Identity
func IdentityFromModel(i *model.Identity) Identity {
	return Identity{
		UserID:      string(i.UserID),
		Email:       i.Email,
		DisplayName: i.DisplayName,
	}
}

// Session is the response for sign-in and refresh
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"identity"`
}

// SessionFromAuth converts an auth.Session
func SessionFromAuth(s *auth.Session) Session {
	return Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		Identity:     IdentityFromModel(&s.Identity),
	}
}

// Me describes the caller and whether they have registered
type Me struct {
	Identity   Identity `json:"identity"`
	Registered bool     `json:"registered"`
}

// Registration is the response after a successful submission
type Registration struct {
	ID            string          `json:"id"`
	Participation string          `json:"participation"`
	TeamName      string          `json:"team_name,omitempty"`
	TeamSize      int             `json:"team_size"`
	RegisteredAt  model.Timestamp `json:"registered_at"`
	Backend       string          `json:"backend"`
}

// RegistrationFromModel converts a stored registration
func RegistrationFromModel(r *model.Registration, backend string) Registration {
	return Registration{
		ID:            string(r.ID),
		Participation: string(r.Participation),
		TeamName:      r.TeamName,
		TeamSize:      r.TeamSize,
		RegisteredAt:  r.RegisteredAt,
		Backend:       backend,
	}
}
