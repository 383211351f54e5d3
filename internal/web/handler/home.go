package handler

import (
	"net/http"

	"github.com/mcoot/datathon/internal/services/registration"
	"github.com/mcoot/datathon/internal/web/middleware"
	"github.com/mcoot/datathon/internal/web/templates/pages"
)

// HomeHandler handles the landing page
type HomeHandler struct {
	site    Site
	service *registration.Service
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(site Site, service *registration.Service) *HomeHandler {
	return &HomeHandler{site: site, service: service}
}

// Home renders the landing page, personalized when a session is present
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := pages.HomeData{
		PageData:   h.site.page(r, "Home"),
		Registered: h.service.Registered(r.Context(), middleware.GetIdentity(r.Context())),
	}
	render(w, r, http.StatusOK, pages.Home(data))
}
