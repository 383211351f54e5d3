package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/datathon/internal/middleware"
	"github.com/mcoot/datathon/internal/web/templates/layout"
	"github.com/mcoot/datathon/internal/web/templates/pages"
)

// Recovery creates panic recovery middleware for the web interface
// Renders an HTML error page on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = pages.Notice(pages.NoticeData{
		PageData: layout.PageData{Title: "Error"},
		Heading:  "Something went wrong",
		Message:  "Please try again later.",
	}).Render(r.Context(), w)
}
