package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/daap14/reportkit/internal/api/response"
	"github.com/daap14/reportkit/internal/auth"
)

const externalIDKey contextKey = "externalID"

// RequireAuthenticated rejects anonymous callers with 401 and stores the
// caller's external id in the request context. It does not touch the store.
func RequireAuthenticated(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			externalID, err := guard.RequireAuthenticated(r)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
					return
				}
				slog.Error("identity resolution failed", "error", err, "operation", "require_authenticated", "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), externalIDKey, externalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetExternalID retrieves the authenticated caller's external id from the request context.
func GetExternalID(ctx context.Context) string {
	if id, ok := ctx.Value(externalIDKey).(string); ok {
		return id
	}
	return ""
}
