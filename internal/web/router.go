package web

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	apihandler "github.com/mcoot/datathon/internal/api/handler"
	sharedmw "github.com/mcoot/datathon/internal/middleware"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/services/registration"
	"github.com/mcoot/datathon/internal/web/handler"
	"github.com/mcoot/datathon/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger              *slog.Logger
	RegistrationService *registration.Service
	// Gate is nil when authentication is disabled; auth pages are then not mounted
	Gate *auth.Gate
	// Production marks cookies Secure and hides remediation hints
	Production bool
	StaticDir  string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	site := handler.Site{AuthEnabled: cfg.Gate != nil, Production: cfg.Production}
	cookies := middleware.Cookies{Secure: cfg.Production}

	// Create middleware
	loggingMiddleware := sharedmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	sessionMiddleware := middleware.Session(cfg.Gate, cookies)
	requireIdentity := middleware.RequireIdentity(cfg.Gate)

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Create handlers
	homeHandler := handler.NewHomeHandler(site, cfg.RegistrationService)
	registerHandler := handler.NewRegisterHandler(site, cfg.RegistrationService, cfg.Logger)
	healthHandler := apihandler.NewHealthHandler(cfg.RegistrationService)

	// Static files
	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
			r.PathPrefix("/static/").Handler(staticHandler)
		}
	}

	r.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	// Pages (session resolved for the nav and personalization)
	pages := r.NewRoute().Subrouter()
	pages.Use(flashMiddleware)
	pages.Use(sessionMiddleware)
	pages.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	pages.Handle("/register", requireIdentity(http.HandlerFunc(registerHandler.Form))).Methods(http.MethodGet)
	// POST answers an anonymous submission with the same login redirect
	pages.HandleFunc("/register", registerHandler.Submit).Methods(http.MethodPost)

	if cfg.Gate != nil {
		authHandler := handler.NewAuthHandler(site, cfg.Gate, cookies, cfg.RegistrationService, cfg.Logger)
		pages.HandleFunc("/signup", authHandler.SignupPage).Methods(http.MethodGet)
		pages.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
		pages.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
		pages.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
		pages.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodGet, http.MethodPost)
		pages.Handle("/dashboard", requireIdentity(http.HandlerFunc(authHandler.Dashboard))).Methods(http.MethodGet)
	}

	return r
}
