// Package middleware provides HTTP middleware for the JCC admin API.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"jccadmin/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// AdminContextKey is the context key for the authenticated admin.
const AdminContextKey contextKey = "admin"

// GetAdminContext retrieves the authenticated admin from the request context.
func GetAdminContext(ctx context.Context) (*auth.AdminContext, bool) {
	admin, ok := ctx.Value(AdminContextKey).(*auth.AdminContext)
	return admin, ok
}

// RequireAuth returns middleware that admits only requests carrying a bearer
// token accepted by store.
//
// Error responses:
//   - 401 Unauthorized: Missing or malformed Authorization header
//   - 403 Forbidden: Token not accepted
//   - 500 Internal Server Error: Store failure
func RequireAuth(store auth.TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractBearerToken(r)
			if err != nil {
				auth.WriteUnauthorized(w)
				return
			}

			admin, err := store.ValidateToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenNotFound) {
					slog.WarnContext(r.Context(), "rejected admin token", "path", r.URL.Path)
					auth.WriteForbidden(w)
					return
				}
				slog.ErrorContext(r.Context(), "token validation failed", "error", err)
				auth.WriteJSONError(w, http.StatusInternalServerError, "internal error", auth.TypeServer)
				return
			}

			ctx := context.WithValue(r.Context(), AdminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
