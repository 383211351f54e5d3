package auth

import (
	"context"
	"errors"
	"time"

	"github.com/mcoot/datathon/internal/model"
)

// Errors
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrAuthRequired         = errors.New("authentication required")
	ErrConfirmationRequired = errors.New("email confirmation required")
	ErrProviderUnavailable  = errors.New("auth provider unavailable")
	ErrPasswordTooShort     = errors.New("password too short")
)

// Session is a signed-in session: a short-lived access token, the refresh
// token that renews it and the identity both belong to
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Identity     model.Identity
}

// TokenInfo is what a provider learns from a valid access token
type TokenInfo struct {
	Identity  model.Identity
	ExpiresAt time.Time
}

// Provider issues and verifies session tokens
type Provider interface {
	// SignUp creates an account and, unless the provider requires email
	// confirmation first, signs it in
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
	// SignIn exchanges credentials for a session
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// User verifies an access token
	User(ctx context.Context, accessToken string) (*TokenInfo, error)
	// Refresh exchanges a refresh token for a new session
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// SignOut revokes the session behind accessToken where the provider supports it
	SignOut(ctx context.Context, accessToken string) error
	// Name identifies the provider in logs and health output
	Name() string
}
