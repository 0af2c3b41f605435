package auth

import (
	"context"
	"net/http"
	"strings"
)

// CookieName is the session cookie the login handler sets.
const CookieName = "token"

type contextKey string

const (
	// UserClaimsKey is the context key for the verified session claims.
	UserClaimsKey = contextKey("userClaims")
	// RawTokenKey is the context key for the raw token string, kept so
	// logout can revoke the exact session that authenticated the request.
	RawTokenKey = contextKey("rawToken")
)

// Middleware creates a middleware for protecting routes. The token is taken
// from the Authorization header when present, the session cookie otherwise.
func (i *Issuer) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				http.Error(w, "Missing auth token", http.StatusUnauthorized)
				return
			}

			claims, err := i.Verify(tokenStr)
			if err != nil {
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			ctx = context.WithValue(ctx, RawTokenKey, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest extracts the session token from the Authorization header
// or, failing that, the session cookie. Empty means no token presented.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) == 2 {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
