package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/datathon/internal/api/apierr"
	"github.com/mcoot/datathon/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// Panics become a JSON INTERNAL_ERROR envelope.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}

// Logging creates request logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("surface", "api")))
}
