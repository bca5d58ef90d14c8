package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"hostel-meals/models"
	"hostel-meals/rules"
	"hostel-meals/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// UserLookup loads the stored record of the authenticated caller
type UserLookup interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// ClaimsFrom returns the claims Auth attached to ctx.
func ClaimsFrom(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok
}

// WithClaims attaches claims the way Auth does.
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, claims)
	return utils.WithUserEmail(ctx, claims.Email)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Auth verifies the service's JWT and attaches the claims to the request context
func Auth(issuer *utils.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				writeMessage(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}
			tokenStr, ok := BearerToken(r)
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := issuer.ParseJWT(tokenStr)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin checks the caller's stored role, not the role baked into the token,
// so a demotion takes effect before the token expires.
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}
			user, err := users.FindUserByEmail(r.Context(), strings.ToLower(claims.Email))
			if err != nil && !models.IsKind(err, models.KindNotFound) {
				writeMessage(w, http.StatusInternalServerError, "Server error")
				return
			}
			if !rules.IsAdmin(user) {
				writeMessage(w, http.StatusForbidden, rules.ErrAdminRequired.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
