package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/auth"
	"github.com/mcoot/datathon/internal/services/registration"
	"github.com/mcoot/datathon/internal/services/validation"
	"github.com/mcoot/datathon/internal/web/middleware"
	"github.com/mcoot/datathon/internal/web/templates/pages"
)

// AuthHandler handles signup, login, logout and the dashboard
type AuthHandler struct {
	site    Site
	gate    *auth.Gate
	cookies middleware.Cookies
	service *registration.Service
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(site Site, gate *auth.Gate, cookies middleware.Cookies, service *registration.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		site:    site,
		gate:    gate,
		cookies: cookies,
		service: service,
		logger:  logger,
	}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentity(r.Context()) != nil {
		// Already logged in
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	render(w, r, http.StatusOK, pages.Login(pages.LoginData{
		PageData: h.site.page(r, "Log in"),
		Next:     r.URL.Query().Get("next"),
	}))
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, "Invalid form data", "", "")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	if email == "" || password == "" {
		h.renderLogin(w, r, "Email and password are required", email, next)
		return
	}

	session, err := h.gate.SignIn(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.renderLogin(w, r, "Invalid email or password", email, next)
			return
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		h.renderLogin(w, r, "Login is unavailable right now. Please try again later.", email, next)
		return
	}

	h.cookies.SetSession(w, session)
	middleware.SetFlash(w, "success", "Welcome back, "+session.Identity.Name()+"!")
	http.Redirect(w, r, safeNext(next, "/dashboard"), http.StatusSeeOther)
}

// SignupPage renders the signup page
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentity(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	render(w, r, http.StatusOK, pages.Signup(pages.SignupData{
		PageData: h.site.page(r, "Sign up"),
		Next:     r.URL.Query().Get("next"),
	}))
}

// Signup handles signup form submission
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignup(w, r, pages.SignupData{Error: "Invalid form data"})
		return
	}

	data := pages.SignupData{
		Email:       strings.TrimSpace(r.FormValue("email")),
		DisplayName: strings.TrimSpace(r.FormValue("display_name")),
		Next:        r.FormValue("next"),
		FieldErrors: make(map[string]string),
	}
	password := r.FormValue("password")

	// Validate inputs
	if !validation.IsValidEmail(data.Email) {
		data.FieldErrors["email"] = "Please enter a valid email address"
	}
	if len(password) < auth.MinPasswordLength {
		data.FieldErrors["password"] = "Password must be at least 8 characters"
	}
	if password != r.FormValue("password_confirm") {
		data.FieldErrors["password_confirm"] = "Passwords do not match"
	}
	if len(data.DisplayName) > 60 {
		data.FieldErrors["display_name"] = "Name must be at most 60 characters"
	}
	if len(data.FieldErrors) > 0 {
		h.renderSignup(w, r, data)
		return
	}

	session, err := h.gate.SignUp(r.Context(), data.Email, password, data.DisplayName)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrAccountExists):
		data.FieldErrors["email"] = "An account with this email already exists"
		h.renderSignup(w, r, data)
		return
	case errors.Is(err, auth.ErrPasswordTooShort):
		data.FieldErrors["password"] = "Password is too weak"
		h.renderSignup(w, r, data)
		return
	case errors.Is(err, auth.ErrConfirmationRequired):
		middleware.SetFlash(w, "info", "Check your email to confirm your account, then log in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	default:
		h.logger.Error("signup failed", slog.String("error", err.Error()))
		data.Error = "Sign up failed. Please try again later."
		h.renderSignup(w, r, data)
		return
	}

	h.cookies.SetSession(w, session)
	middleware.SetFlash(w, "success", "Account created! Welcome, "+session.Identity.Name()+"!")
	http.Redirect(w, r, safeNext(data.Next, "/register"), http.StatusSeeOther)
}

// Logout ends the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.AccessCookieName); err == nil {
		h.gate.SignOut(r.Context(), c.Value)
	}
	h.cookies.Clear(w)

	middleware.SetFlash(w, "info", "You have been logged out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Dashboard shows the signed-in user's registration status
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	render(w, r, http.StatusOK, pages.Dashboard(pages.DashboardData{
		PageData:   h.site.page(r, "Dashboard"),
		Registered: h.service.Registered(r.Context(), identity),
	}))
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, errorMsg, email, next string) {
	render(w, r, http.StatusOK, pages.Login(pages.LoginData{
		PageData: h.site.page(r, "Log in"),
		Email:    email,
		Error:    errorMsg,
		Next:     next,
	}))
}

func (h *AuthHandler) renderSignup(w http.ResponseWriter, r *http.Request, data pages.SignupData) {
	data.PageData = h.site.page(r, "Sign up")
	render(w, r, http.StatusOK, pages.Signup(data))
}
