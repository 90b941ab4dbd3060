package auth

import (
	"context"
	"net/http"
)

// contextKey is unexported so only this package can read or write the
// identity values stored in a request context.
type contextKey string

const (
	principalKey contextKey = "principal"
	staffIDKey   contextKey = "staffID"
)

// Cookie names for the two token kinds.
const (
	PlayerCookie = "token"
	StaffCookie  = "staff_token"
)

// RequirePlayer enforces a valid player token on protected routes.
//
// The token's subject is the external identity principal (e.g.
// "github:123"), not a player ID: a principal authenticates before any
// player record is linked to it, and /player/link relies on that. The JWT
// is read from the HttpOnly "token" cookie; on success the principal is
// stored in the request context, otherwise the chain stops with 401.
func RequirePlayer(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := extractSubject(r, tokens, PlayerCookie, AudiencePlayer)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalPlayer extracts the identity principal when a valid token is
// present but never blocks the request. Used on public routes where a
// logged-in caller sees extra detail.
func OptionalPlayer(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principal, err := extractSubject(r, tokens, PlayerCookie, AudiencePlayer); err == nil && principal != "" {
				ctx := context.WithValue(r.Context(), principalKey, principal)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff enforces a valid staff token. Player tokens are rejected
// here by the audience check.
func RequireStaff(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			staffID, err := extractSubject(r, tokens, StaffCookie, AudienceStaff)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid staff authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), staffIDKey, staffID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated identity principal.
// ok is false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalKey).(string)
	return id, ok && id != ""
}

// StaffIDFromContext returns the authenticated staff member's ID.
func StaffIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(staffIDKey).(string)
	return id, ok && id != ""
}

func extractSubject(r *http.Request, tokens *TokenService, cookieName, audience string) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value, audience)
}
