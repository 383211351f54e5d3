package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/datathon/internal/dependencies/clock"
	"github.com/mcoot/datathon/internal/model"
)

// HostedConfig holds settings for a GoTrue-compatible auth service
type HostedConfig struct {
	// URL is the project base URL; endpoints live under /auth/v1
	URL string
	// Key is the project API key sent as the apikey header
	Key     string
	Timeout time.Duration
}

// HostedProvider delegates accounts and tokens to a hosted GoTrue service
type HostedProvider struct {
	cfg        HostedConfig
	baseURL    string
	clock      clock.Clock
	httpClient *http.Client
}

// NewHostedProvider creates a HostedProvider
func NewHostedProvider(cfg HostedConfig, clk clock.Clock) (*HostedProvider, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("hosted auth provider requires a URL and key: %w", ErrProviderUnavailable)
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid auth URL: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HostedProvider{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(cfg.URL, "/") + "/auth/v1",
		clock:      clk,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// NewHostedProviderWithClient creates a HostedProvider using an existing HTTP client (for testing)
func NewHostedProviderWithClient(cfg HostedConfig, clk clock.Clock, client *http.Client) (*HostedProvider, error) {
	p, err := NewHostedProvider(cfg, clk)
	if err != nil {
		return nil, err
	}
	p.httpClient = client
	return p, nil
}

// Ensure HostedProvider implements Provider
var _ Provider = (*HostedProvider)(nil)

func (p *HostedProvider) Name() string {
	return "hosted"
}

// Wire types

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type gotrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         *gotrueUser `json:"user"`
}

// gotrueError covers both the legacy and current error body shapes
type gotrueError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *gotrueError) message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Error
	}
}

func (p *HostedProvider) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	body := map[string]any{
		"email":    strings.TrimSpace(email),
		"password": password,
	}
	if name := strings.TrimSpace(displayName); name != "" {
		body["data"] = map[string]string{"display_name": name}
	}

	status, raw, err := p.call(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		apiErr := decodeGotrueError(raw)
		if apiErr.ErrorCode == "user_already_exists" || strings.Contains(strings.ToLower(apiErr.message()), "already registered") {
			return nil, model.ErrAccountExists
		}
		if apiErr.ErrorCode == "weak_password" {
			return nil, ErrPasswordTooShort
		}
		return nil, p.statusError(status, apiErr)
	}

	var sess gotrueSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	// Without autoconfirm the service returns the bare user and no tokens
	if sess.AccessToken == "" {
		return nil, ErrConfirmationRequired
	}
	return p.session(&sess), nil
}

func (p *HostedProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return p.grant(ctx, "password", map[string]any{
		"email":    strings.TrimSpace(email),
		"password": password,
	}, ErrInvalidCredentials)
}

func (p *HostedProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	return p.grant(ctx, "refresh_token", map[string]any{
		"refresh_token": refreshToken,
	}, ErrInvalidToken)
}

func (p *HostedProvider) User(ctx context.Context, accessToken string) (*TokenInfo, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	status, raw, err := p.call(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		if status < 500 {
			return nil, ErrInvalidToken
		}
		return nil, p.statusError(status, decodeGotrueError(raw))
	}

	var user gotrueUser
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &TokenInfo{
		Identity:  user.identity(),
		ExpiresAt: p.tokenExpiry(accessToken),
	}, nil
}

func (p *HostedProvider) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	status, raw, err := p.call(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	// An already invalid token is as good as signed out
	if status >= 300 && status != http.StatusUnauthorized && status != http.StatusNotFound {
		return p.statusError(status, decodeGotrueError(raw))
	}
	return nil
}

func (p *HostedProvider) grant(ctx context.Context, grantType string, body map[string]any, rejected error) (*Session, error) {
	status, raw, err := p.call(ctx, http.MethodPost, "/token?grant_type="+url.QueryEscape(grantType), "", body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		if status < 500 {
			return nil, rejected
		}
		return nil, p.statusError(status, decodeGotrueError(raw))
	}

	var sess gotrueSession
	if err := json.Unmarshal(raw, &sess); err != nil || sess.AccessToken == "" {
		return nil, fmt.Errorf("decode token response: %w", ErrProviderUnavailable)
	}
	return p.session(&sess), nil
}

// call performs a request and returns status and body. Transport failures
// are reported as ErrProviderUnavailable.
func (p *HostedProvider) call(ctx context.Context, method, path, bearer string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("apikey", p.cfg.Key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w: %v", path, ErrProviderUnavailable, err)
	}
	return resp.StatusCode, raw, nil
}

func (p *HostedProvider) statusError(status int, apiErr *gotrueError) error {
	msg := apiErr.message()
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("auth service returned %d (%s): %w", status, msg, ErrProviderUnavailable)
}

func (p *HostedProvider) session(sess *gotrueSession) *Session {
	expiresAt := p.clock.Now().Add(time.Duration(sess.ExpiresIn) * time.Second)
	if sess.ExpiresAt > 0 {
		expiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}

	out := &Session{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    expiresAt,
	}
	if sess.User != nil {
		out.Identity = sess.User.identity()
	}
	return out
}

// tokenExpiry reads exp from the access token without verifying it; the
// service has already vouched for the token. Falls back to now when the
// token carries no readable expiry, so nothing gets cached.
func (p *HostedProvider) tokenExpiry(accessToken string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil || claims.ExpiresAt == nil {
		return p.clock.Now()
	}
	return claims.ExpiresAt.Time
}

func (u *gotrueUser) identity() model.Identity {
	id := model.Identity{
		UserID: model.UserID(u.ID),
		Email:  strings.ToLower(u.Email),
	}
	for _, key := range []string{"display_name", "full_name", "name"} {
		if v, ok := u.UserMetadata[key].(string); ok && v != "" {
			id.DisplayName = v
			break
		}
	}
	return id
}

func decodeGotrueError(raw []byte) *gotrueError {
	var e gotrueError
	_ = json.Unmarshal(raw, &e)
	return &e
}
