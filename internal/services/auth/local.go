package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/datathon/internal/dependencies/clock"
	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/storage"
)

// Token types carried in the typ claim
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// MinPasswordLength is the shortest password SignUp accepts
const MinPasswordLength = 8

// LocalConfig holds configuration for the local provider
type LocalConfig struct {
	// Secret signs tokens with HS256
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// DefaultLocalConfig returns default token lifetimes. Secret must still be set.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 30 * 24 * time.Hour,
		Issuer:          "datathon",
	}
}

// tokenClaims are the claims in both access and refresh tokens
type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// LocalProvider keeps accounts in our own store and signs its own tokens.
// Used when no hosted auth service is configured.
type LocalProvider struct {
	accounts storage.Accounts
	clock    clock.Clock
	cfg      LocalConfig
	parser   *jwt.Parser
}

// NewLocalProvider creates a LocalProvider
func NewLocalProvider(accounts storage.Accounts, clk clock.Clock, cfg LocalConfig) (*LocalProvider, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("local auth provider requires a signing secret")
	}
	defaults := DefaultLocalConfig()
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = defaults.AccessTokenTTL
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = defaults.RefreshTokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}

	return &LocalProvider{
		accounts: accounts,
		clock:    clk,
		cfg:      cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

// Ensure LocalProvider implements Provider
var _ Provider = (*LocalProvider)(nil)

func (p *LocalProvider) Name() string {
	return "local"
}

// SignUp creates an account and signs it in
func (p *LocalProvider) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	// Check if email exists
	_, err := p.accounts.GetAccountByEmail(ctx, email)
	if err == nil {
		return nil, model.ErrAccountExists
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	// Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		UserID:       model.UserID(uuid.NewString()),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    model.NewTimestamp(p.clock.Now()),
	}

	if err := p.accounts.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	return p.issue(account.Identity())
}

// SignIn authenticates an account and issues a session
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	account, err := p.accounts.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.issue(account.Identity())
}

// User verifies an access token without a storage lookup
func (p *LocalProvider) User(ctx context.Context, accessToken string) (*TokenInfo, error) {
	claims, err := p.parse(accessToken, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &TokenInfo{
		Identity:  claims.identity(),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh verifies a refresh token and issues a new pair.
// The account must still exist.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := p.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	account, err := p.accounts.GetAccount(ctx, model.UserID(claims.Subject))
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return p.issue(account.Identity())
}

// SignOut is a no-op: local tokens are stateless and expire on their own
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func (p *LocalProvider) issue(identity *model.Identity) (*Session, error) {
	now := p.clock.Now()
	accessExp := now.Add(p.cfg.AccessTokenTTL)

	access, err := p.sign(identity, tokenTypeAccess, now, accessExp)
	if err != nil {
		return nil, err
	}
	refresh, err := p.sign(identity, tokenTypeRefresh, now, now.Add(p.cfg.RefreshTokenTTL))
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
		Identity:     *identity,
	}, nil
}

func (p *LocalProvider) sign(identity *model.Identity, typ string, now, exp time.Time) (string, error) {
	claims := tokenClaims{
		Email: identity.Email,
		Name:  identity.DisplayName,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   string(identity.UserID),
			Issuer:    p.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (p *LocalProvider) parse(raw, typ string) (*tokenClaims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &tokenClaims{}
	token, err := p.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return p.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *tokenClaims) identity() model.Identity {
	return model.Identity{
		UserID:      model.UserID(c.Subject),
		Email:       c.Email,
		DisplayName: c.Name,
	}
}
