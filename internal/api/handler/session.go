package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/datathon/internal/api/middleware"
	"github.com/mcoot/datathon/internal/api/request"
	"github.com/mcoot/datathon/internal/api/response"
	"github.com/mcoot/datathon/internal/services/auth"
)

// SessionHandler exchanges credentials and refresh tokens for access tokens
type SessionHandler struct {
	gate *auth.Gate
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(gate *auth.Gate) *SessionHandler {
	return &SessionHandler{gate: gate}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.SessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("email and password are required"))
		return
	}

	session, err := h.gate.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Private(w)
	response.JSON(w, http.StatusCreated, response.SessionFromAuth(session))
}

// Refresh handles POST /api/v1/sessions/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.gate.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Private(w)
	response.JSON(w, http.StatusOK, response.SessionFromAuth(session))
}

// Delete handles DELETE /api/v1/sessions
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_ = middleware.MustGetIdentity(r.Context())
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	h.gate.SignOut(r.Context(), token)
	response.NoContent(w)
}
