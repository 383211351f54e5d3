package handler

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/datathon/internal/web/middleware"
	"github.com/mcoot/datathon/internal/web/templates/layout"
)

// Site carries settings every handler needs to build a page
type Site struct {
	AuthEnabled bool
	// Production hides remediation hints from users
	Production bool
}

func (s Site) page(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title:       title,
		Identity:    middleware.GetIdentity(r.Context()),
		Flash:       middleware.GetFlash(r.Context()),
		AuthEnabled: s.AuthEnabled,
	}
}

func render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = component.Render(r.Context(), w)
}

// safeNext returns next if it is a local path, otherwise fallback
func safeNext(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return fallback
}
