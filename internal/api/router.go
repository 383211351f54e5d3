package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/datathon/internal/api/handler"
	"github.com/mcoot/datathon/internal/api/middleware"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/services/registration"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger              *slog.Logger
	RegistrationService *registration.Service
	// Gate is nil when authentication is disabled
	Gate *auth.Gate
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.RegistrationService)
	registrationHandler := handler.NewRegistrationHandler(cfg.RegistrationService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.Gate)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	// Session routes exist only when there is something to sign in to
	if cfg.Gate != nil {
		sessionHandler := handler.NewSessionHandler(cfg.Gate)
		api.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
		api.HandleFunc("/sessions/refresh", sessionHandler.Refresh).Methods(http.MethodPost)
		api.Handle("/sessions", authMiddleware(http.HandlerFunc(sessionHandler.Delete))).Methods(http.MethodDelete)
	}

	// Protected routes; open when auth is disabled
	api.Handle("/registrations", authMiddleware(http.HandlerFunc(registrationHandler.Submit))).Methods(http.MethodPost)
	api.Handle("/me", authMiddleware(http.HandlerFunc(registrationHandler.Me))).Methods(http.MethodGet)

	return r
}
