package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/datathon/internal/api/apierr"
	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Auth creates authentication middleware. Requests need a valid bearer
// access token; with a nil gate every request passes through anonymously.
func Auth(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if gate == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			identity, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the access token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to the browser session cookie
	cookie, err := r.Cookie(auth.AccessCookieName)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetIdentity returns the authenticated identity from the request context
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// MustGetIdentity returns the authenticated identity or panics
func MustGetIdentity(ctx context.Context) *model.Identity {
	identity := GetIdentity(ctx)
	if identity == nil {
		panic("no identity in context - auth middleware not applied?")
	}
	return identity
}
