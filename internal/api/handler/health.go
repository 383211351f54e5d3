package handler

import (
	"net/http"

	"github.com/mcoot/datathon/internal/api/response"
	"github.com/mcoot/datathon/internal/services/registration"
)

// HealthHandler reports which storage backend is configured and whether it answers
type HealthHandler struct {
	service *registration.Service
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(service *registration.Service) *HealthHandler {
	return &HealthHandler{service: service}
}

// Check handles GET /health. The process is up whenever it can answer, so
// the status is always "ok" and a broken backend shows in connected.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:    "ok",
		Storage:   h.service.Backend(),
		Connected: h.service.Connected(r.Context()),
	})
}
