package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mcoot/datathon/internal/dependencies/clock"
	"github.com/mcoot/datathon/internal/model"
)

// Cookie names and lifetimes used by the web layer
const (
	AccessCookieName   = "access_token"
	RefreshCookieName  = "refresh_token"
	AccessCookieMaxAge = 7 * 24 * time.Hour
	// RefreshCookieMaxAge bounds how long a browser keeps the refresh token
	RefreshCookieMaxAge = 30 * 24 * time.Hour
)

// Config holds configuration for the gate
type Config struct {
	// IdentityCacheTTL bounds how long a verified access token is trusted
	// without asking the provider again
	IdentityCacheTTL time.Duration
}

// DefaultConfig returns the default gate configuration
func DefaultConfig() Config {
	return Config{
		IdentityCacheTTL: 5 * time.Minute,
	}
}

// Resolution is the outcome of resolving a request's tokens
type Resolution struct {
	// Identity is nil for an anonymous requester
	Identity *model.Identity
	// Refreshed is set when the access token was renewed; the caller
	// must write the new tokens back to the client
	Refreshed *Session
	// Stale is set when the presented tokens are unusable and should be cleared
	Stale bool
}

type cachedIdentity struct {
	identity  model.Identity
	expiresAt time.Time
}

// Gate resolves request tokens to identities and fronts the provider for
// sign up, sign in and sign out
type Gate struct {
	provider Provider
	cache    *gocache.Cache
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
}

// NewGate creates a new Gate
func NewGate(provider Provider, clk clock.Clock, cfg Config, logger *slog.Logger) *Gate {
	if cfg.IdentityCacheTTL == 0 {
		cfg.IdentityCacheTTL = DefaultConfig().IdentityCacheTTL
	}
	return &Gate{
		provider: provider,
		cache:    gocache.New(cfg.IdentityCacheTTL, 2*cfg.IdentityCacheTTL),
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
}

// Provider returns the underlying provider
func (g *Gate) Provider() Provider {
	return g.provider
}

// Resolve validates the access token and, if that fails, makes exactly one
// refresh attempt. Every failure resolves to an anonymous requester.
func (g *Gate) Resolve(ctx context.Context, accessToken, refreshToken string) Resolution {
	if accessToken == "" && refreshToken == "" {
		return Resolution{}
	}

	if accessToken != "" {
		if identity, ok := g.verify(ctx, accessToken); ok {
			return Resolution{Identity: identity}
		}
	}

	if refreshToken == "" {
		return Resolution{Stale: true}
	}

	session, err := g.provider.Refresh(ctx, refreshToken)
	if err != nil {
		g.logFailure("token refresh failed", err)
		return Resolution{Stale: true}
	}

	g.remember(session.AccessToken, session.Identity, session.ExpiresAt)
	identity := session.Identity
	return Resolution{Identity: &identity, Refreshed: session}
}

// Authenticate verifies a bearer access token without attempting a refresh
func (g *Gate) Authenticate(ctx context.Context, accessToken string) (*model.Identity, error) {
	if identity, ok := g.verify(ctx, accessToken); ok {
		return identity, nil
	}
	return nil, ErrAuthRequired
}

// SignUp creates an account through the provider
func (g *Gate) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	session, err := g.provider.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	g.remember(session.AccessToken, session.Identity, session.ExpiresAt)
	return session, nil
}

// SignIn exchanges credentials for a session through the provider
func (g *Gate) SignIn(ctx context.Context, email, password string) (*Session, error) {
	session, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	g.remember(session.AccessToken, session.Identity, session.ExpiresAt)
	return session, nil
}

// Refresh exchanges a refresh token for a new session through the provider
func (g *Gate) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	session, err := g.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	g.remember(session.AccessToken, session.Identity, session.ExpiresAt)
	return session, nil
}

// SignOut forgets the access token and revokes it with the provider.
// Provider failures are logged; the local session ends regardless.
func (g *Gate) SignOut(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	g.cache.Delete(accessToken)
	if err := g.provider.SignOut(ctx, accessToken); err != nil {
		g.logger.Warn("sign out failed", slog.String("provider", g.provider.Name()), slog.String("error", err.Error()))
	}
}

func (g *Gate) verify(ctx context.Context, accessToken string) (*model.Identity, bool) {
	if accessToken == "" {
		return nil, false
	}

	now := g.clock.Now()
	if v, found := g.cache.Get(accessToken); found {
		entry := v.(cachedIdentity)
		if now.Before(entry.expiresAt) {
			identity := entry.identity
			return &identity, true
		}
		g.cache.Delete(accessToken)
	}

	info, err := g.provider.User(ctx, accessToken)
	if err != nil {
		g.logFailure("access token rejected", err)
		return nil, false
	}
	// Tokens without a future expiry are trusted for this request only
	g.remember(accessToken, info.Identity, info.ExpiresAt)
	identity := info.Identity
	return &identity, true
}

// remember caches identity for accessToken until the earlier of the token
// expiry and the cache TTL
func (g *Gate) remember(accessToken string, identity model.Identity, tokenExpiry time.Time) {
	if accessToken == "" {
		return
	}
	now := g.clock.Now()
	expiresAt := now.Add(g.cfg.IdentityCacheTTL)
	if tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	g.cache.Set(accessToken, cachedIdentity{identity: identity, expiresAt: expiresAt}, ttl)
}

func (g *Gate) logFailure(msg string, err error) {
	level := slog.LevelDebug
	if errors.Is(err, ErrProviderUnavailable) {
		level = slog.LevelWarn
	}
	g.logger.Log(context.Background(), level, msg,
		slog.String("provider", g.provider.Name()),
		slog.String("error", err.Error()),
	)
}
