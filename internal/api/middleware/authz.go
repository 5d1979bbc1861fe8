package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/daap14/reportkit/internal/api/response"
	"github.com/daap14/reportkit/internal/auth"
	"github.com/daap14/reportkit/internal/user"
)

const adminKey contextKey = "admin"

// RequireAdmin returns middleware that rejects anonymous callers with 401,
// non-admins with 403 and role lookup failures with 500. The admin's record
// is stored in the request context.
func RequireAdmin(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			admin, err := guard.RequireAdmin(r.Context(), r)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrUnauthorized):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				case errors.Is(err, auth.ErrForbidden):
					response.Err(w, http.StatusForbidden, "FORBIDDEN", "Admin access required", requestID)
				default:
					externalID, _ := guard.ResolveIdentity(r)
					slog.Error("admin check failed", "error", err, "externalId", externalID, "operation", "require_admin", "requestId", requestID)
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify permissions", requestID)
				}
				return
			}

			ctx := context.WithValue(r.Context(), externalIDKey, admin.ExternalID)
			ctx = context.WithValue(ctx, adminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin retrieves the admin record stored by RequireAdmin.
func GetAdmin(ctx context.Context) *user.User {
	if u, ok := ctx.Value(adminKey).(*user.User); ok {
		return u
	}
	return nil
}
