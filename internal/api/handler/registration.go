package handler

import (
	"net/http"

	"github.com/mcoot/datathon/internal/api/apierr"
	"github.com/mcoot/datathon/internal/api/middleware"
	"github.com/mcoot/datathon/internal/api/request"
	"github.com/mcoot/datathon/internal/api/response"
	"github.com/mcoot/datathon/internal/services/registration"
)

// RegistrationHandler handles registration endpoints
type RegistrationHandler struct {
	service *registration.Service
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(service *registration.Service) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// Submit handles POST /api/v1/registrations
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req request.RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	identity := middleware.GetIdentity(r.Context())
	reg, err := h.service.Submit(r.Context(), identity, req.Form())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RegistrationFromModel(reg, h.service.Backend()))
}

// Me handles GET /api/v1/me
func (h *RegistrationHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		// Authentication is disabled; there is nobody to describe
		WriteError(w, apierr.NewUnauthorizedError())
		return
	}

	response.JSON(w, http.StatusOK, response.Me{
		Identity:   response.IdentityFromModel(identity),
		Registered: h.service.Registered(r.Context(), identity),
	})
}
