package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/datathon/internal/api"
	"github.com/mcoot/datathon/internal/api/apierr"
	"github.com/mcoot/datathon/internal/api/handler"
	"github.com/mcoot/datathon/internal/api/request"
	"github.com/mcoot/datathon/internal/api/response"
	"github.com/mcoot/datathon/internal/factory"
	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/validation"
	"github.com/mcoot/datathon/internal/storage"
	"github.com/mcoot/datathon/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, opts factory.TestOptions) *testServer {
	t.Helper()

	app := factory.NewTestAppWith(opts)
	router := api.NewRouter(api.RouterConfig{
		Logger:              testutil.NopLogger(),
		RegistrationService: app.RegistrationService,
		Gate:                app.Gate,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	session, err := ts.app.Gate.SignUp(t.Context(), email, "password123", "Ann")
	require.NoError(t, err)
	return session.AccessToken
}

func soloRequest(email string) request.RegistrationRequest {
	return request.RegistrationRequest{
		Name:             "Ann",
		Email:            email,
		Phone:            "1234567890",
		University:       "X",
		Department:       "CS",
		Year:             "3",
		Participation:    "solo",
		ProblemStatement: "PS2",
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var body apierr.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Error
}

// rejectingStore refuses every write the way a row-level security policy does
type rejectingStore struct{}

func (rejectingStore) Insert(context.Context, *model.Registration) error {
	return &storage.Error{Kind: storage.KindRejected, Code: "42501", Message: "new row violates row-level security policy"}
}

func (rejectingStore) ExistsForIdentity(context.Context, string) (bool, error) {
	return false, nil
}

func (rejectingStore) Ping(context.Context) error {
	return nil
}

func (rejectingStore) Backend() string {
	return storage.BackendRemote
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var health response.Health
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	assert.Equal(t, response.Health{Status: "ok", Storage: storage.BackendMemory, Connected: true}, health)
}

func TestHealthCheckWithoutStorage(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{NoStorage: true})

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var health response.Health
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, storage.BackendNone, health.Storage)
	assert.False(t, health.Connected)
}

func TestSubmitRequiresToken(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})

	rr := ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSubmitSolo(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "ann@x.com")

	rr := ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var reg response.Registration
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&reg))
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, "solo", reg.Participation)
	assert.Equal(t, 1, reg.TeamSize)
	assert.Equal(t, storage.BackendMemory, reg.Backend)

	stored := ts.app.Store.Registrations()
	require.Len(t, stored, 1)
	assert.Equal(t, "ann@x.com", stored[0].SubmittedByEmail)
}

func TestSubmitDuplicateIsBlocked(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "ann@x.com")

	rr := ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), token)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyRegistered, decodeError(t, rr).Code)
	assert.Len(t, ts.app.Store.Registrations(), 1)
}

func TestSubmitTeam(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "lead@x.com")

	req := soloRequest("lead@x.com")
	req.Participation = "team"
	req.TeamSize = 2
	req.TeamName = "Ants"
	req.TeamMembers = []request.Member{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "b@x.com"},
	}

	rr := ts.request(http.MethodPost, "/api/v1/registrations", req, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	stored := ts.app.Store.Registrations()
	require.Len(t, stored, 1)
	assert.Equal(t, "Ants", stored[0].TeamName)
	assert.Len(t, stored[0].TeamMembers, 2)
}

func TestSubmitTeamMemberMismatch(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "lead@x.com")

	req := soloRequest("lead@x.com")
	req.Participation = "team"
	req.TeamSize = 3
	req.TeamName = "Ants"
	req.TeamMembers = []request.Member{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "b@x.com"},
	}

	rr := ts.request(http.MethodPost, "/api/v1/registrations", req, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, apiErr.Code)
	assert.Equal(t, validation.MsgMemberDetails, apiErr.Message)
	assert.Empty(t, ts.app.Store.Registrations())
}

func TestSubmitInvalidJSON(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "ann@x.com")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
}

func TestSubmitBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "ann@x.com")

	body := map[string]any{"name": strings.Repeat("a", handler.MaxBodyBytes)}
	rr := ts.request(http.MethodPost, "/api/v1/registrations", body, token)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, apierr.CodeRequestTooLarge, decodeError(t, rr).Code)
	assert.Empty(t, ts.app.Store.Registrations())
}

func TestSubmitFieldOverLengthCap(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "ann@x.com")

	req := soloRequest("ann@x.com")
	req.ProblemStatement = strings.Repeat("p", validation.MaxProblemStatementLength+1)
	rr := ts.request(http.MethodPost, "/api/v1/registrations", req, token)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, apiErr.Code)
	assert.Equal(t, validation.FieldProblemStatement, apiErr.Field)
}

func TestSubmitTeamSizeAsString(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "lead@x.com")

	body := map[string]any{
		"name":              "Ann",
		"email":             "lead@x.com",
		"phone":             "1234567890",
		"university":        "X",
		"department":        "CS",
		"year":              "3",
		"participation":     "team",
		"team_name":         "Ants",
		"team_size":         "2",
		"team_members":      []map[string]string{{"name": "A", "email": "a@x.com"}, {"name": "B", "email": "b@x.com"}},
		"problem_statement": "PS2",
	}
	rr := ts.request(http.MethodPost, "/api/v1/registrations", body, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	stored := ts.app.Store.Registrations()
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].TeamSize)

	// A non-numeric size is a validation failure on the field, not a malformed body
	token = ts.signUp(t, "other@x.com")
	body["email"] = "other@x.com"
	body["team_size"] = "two"
	rr = ts.request(http.MethodPost, "/api/v1/registrations", body, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, apiErr.Code)
	assert.Equal(t, validation.FieldTeamSize, apiErr.Field)
}

func TestSubmitWithoutStorage(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{NoStorage: true})
	token := ts.signUp(t, "ann@x.com")

	rr := ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), token)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, apierr.CodeStorageUnavailable, decodeError(t, rr).Code)
}

func TestSubmitRejectedByStorage(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{Registrations: rejectingStore{}})
	token := ts.signUp(t, "ann@x.com")

	rr := ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeStorageRejected, decodeError(t, rr).Code)
}

func TestSubmitWithAuthDisabled(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{AuthDisabled: true})

	rr := ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), "")
	require.Equal(t, http.StatusCreated, rr.Code)

	// The submitted email is the identity when nobody is signed in
	rr = ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ANN@x.com"), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyRegistered, decodeError(t, rr).Code)

	// No session routes without a gate
	rr = ts.request(http.MethodPost, "/api/v1/sessions", request.SessionRequest{Email: "a@x.com", Password: "password123"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	ts.signUp(t, "ann@x.com")

	// Wrong password
	rr := ts.request(http.MethodPost, "/api/v1/sessions", request.SessionRequest{Email: "ann@x.com", Password: "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decodeError(t, rr).Code)

	// Sign in
	rr = ts.request(http.MethodPost, "/api/v1/sessions", request.SessionRequest{Email: "ann@x.com", Password: "password123"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	var session response.Session
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&session))
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "ann@x.com", session.Identity.Email)

	// Who am I
	rr = ts.request(http.MethodGet, "/api/v1/me", nil, session.AccessToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var me response.Me
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&me))
	assert.Equal(t, "ann@x.com", me.Identity.Email)
	assert.False(t, me.Registered)

	// Refresh
	rr = ts.request(http.MethodPost, "/api/v1/sessions/refresh", request.RefreshRequest{RefreshToken: session.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var refreshed response.Session
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&refreshed))
	assert.NotEqual(t, session.AccessToken, refreshed.AccessToken)

	// A refresh token is not an access token
	rr = ts.request(http.MethodPost, "/api/v1/sessions/refresh", request.RefreshRequest{RefreshToken: session.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Sign out
	rr = ts.request(http.MethodDelete, "/api/v1/sessions", nil, refreshed.AccessToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestMeReportsRegistration(t *testing.T) {
	ts := newTestServer(t, factory.TestOptions{})
	token := ts.signUp(t, "ann@x.com")

	rr := ts.request(http.MethodPost, "/api/v1/registrations", soloRequest("ann@x.com"), token)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var me response.Me
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&me))
	assert.True(t, me.Registered)
}

func TestPanicReturnsJSON(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{Logger: testutil.NopLogger()})

	// A nil service panics inside the health handler
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, apierr.CodeInternalError, decodeError(t, rr).Code)
}
