package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/auth"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
)

// GetIdentity retrieves the resolved identity from the request context
// Returns nil if the requester is anonymous
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// Cookies writes and clears the session cookie pair
type Cookies struct {
	// Secure marks cookies HTTPS-only; set in production
	Secure bool
}

// SetSession stores both tokens of session
func (c Cookies) SetSession(w http.ResponseWriter, session *auth.Session) {
	c.set(w, auth.AccessCookieName, session.AccessToken, auth.AccessCookieMaxAge)
	c.set(w, auth.RefreshCookieName, session.RefreshToken, auth.RefreshCookieMaxAge)
}

// Clear deletes both session cookies
func (c Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessCookieName, auth.RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c Cookies) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	if value == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session returns middleware that resolves the requester from the session
// cookies. Renewed tokens are written back; unusable ones are cleared.
// With a nil gate every requester passes through anonymous.
func Session(gate *auth.Gate, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate == nil {
				next.ServeHTTP(w, r)
				return
			}

			res := gate.Resolve(r.Context(), cookieValue(r, auth.AccessCookieName), cookieValue(r, auth.RefreshCookieName))
			switch {
			case res.Refreshed != nil:
				cookies.SetSession(w, res.Refreshed)
			case res.Stale:
				cookies.Clear(w)
			}

			ctx := context.WithValue(r.Context(), identityContextKey, res.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity returns middleware that redirects anonymous requesters to
// the login page, carrying the original path in next. A nil gate lets
// everyone through.
func RequireIdentity(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate != nil && GetIdentity(r.Context()) == nil {
				RedirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectToLogin sends the requester to log in and come back to the current path
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
