package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/storage"
)

// Storage inserts registrations into a hosted PostgREST table
type Storage struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// New creates a remote storage for the given config
func New(cfg Config) (*Storage, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, storage.ErrNotConfigured
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid remote URL: %w", err)
	}
	if cfg.Table == "" {
		cfg.Table = DefaultConfig().Table
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Storage{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// NewWithClient creates a remote storage using an existing HTTP client (for testing)
func NewWithClient(cfg Config, client *http.Client) (*Storage, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	s.httpClient = client
	return s, nil
}

// Ensure Storage implements the interface
var _ storage.Registrations = (*Storage)(nil)

// errorPayload is the error body PostgREST returns
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (s *Storage) Insert(ctx context.Context, reg *model.Registration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return &storage.Error{Kind: storage.KindInvalid, Message: "encode record", Err: err}
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.tableURL(nil), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *Storage) ExistsForIdentity(ctx context.Context, email string) (bool, error) {
	q := url.Values{}
	q.Set("select", "id")
	pattern := quoteFilter(likePattern(email))
	q.Set("or", fmt.Sprintf("(submitted_by_email.ilike.%s,email.ilike.%s)", pattern, pattern))
	q.Set("limit", "1")

	req, err := s.newRequest(ctx, http.MethodGet, s.tableURL(q), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return false, decodeError(resp)
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return false, &storage.Error{Kind: storage.KindInvalid, Message: "decode query response", Err: err}
	}
	return len(rows) > 0, nil
}

// Ping issues a zero-row select against the table
func (s *Storage) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "0")

	req, err := s.newRequest(ctx, http.MethodGet, s.tableURL(q), nil)
	if err != nil {
		return err
	}

	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	return nil
}

func (s *Storage) Backend() string {
	return storage.BackendRemote
}

func (s *Storage) tableURL(q url.Values) string {
	u := s.baseURL + "/rest/v1/" + url.PathEscape(s.cfg.Table)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (s *Storage) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &storage.Error{Kind: storage.KindInvalid, Message: "build request", Err: err}
	}
	req.Header.Set("apikey", s.cfg.Key)
	req.Header.Set("Authorization", "Bearer "+s.cfg.Key)
	return req, nil
}

func (s *Storage) do(req *http.Request) (*http.Response, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, storage.Unavailable("request failed", err)
	}
	return resp, nil
}

// decodeError turns a non-2xx response into a structured storage error
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(raw))
		if payload.Message == "" {
			payload.Message = http.StatusText(resp.StatusCode)
		}
	}

	return &storage.Error{
		Kind:    classify(resp.StatusCode, payload.Code),
		Code:    payload.Code,
		Message: payload.Message,
		Details: payload.Details,
		Hint:    payload.Hint,
	}
}

// classify maps an HTTP status and PostgREST/Postgres code to an error kind
func classify(status int, code string) storage.Kind {
	switch code {
	case "42501", // insufficient_privilege, e.g. row-level security violation
		"PGRST301", "PGRST302": // JWT missing or invalid
		return storage.KindRejected
	case "42P01", "PGRST205": // table missing
		return storage.KindUnavailable
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return storage.KindRejected
	case status >= 500:
		return storage.KindUnavailable
	default:
		return storage.KindInvalid
	}
}

// likePattern turns email into an ilike pattern matching exactly that address,
// ignoring case. PostgREST reads * as a wildcard, so a literal * matches any
// single character.
func likePattern(email string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
		`*`, `_`,
	).Replace(strings.ToLower(email))
}

// quoteFilter quotes a value for use inside a PostgREST or=() filter
func quoteFilter(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
