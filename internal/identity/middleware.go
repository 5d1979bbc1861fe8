package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Middleware verifies the request's session token, if present, and stores the
// outcome in the request context. Requests without a valid token continue as
// anonymous.
func Middleware(v Verifier, timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := TokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			verifyCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				verifyCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			session, err := v.Verify(verifyCtx, token)
			switch {
			case err == nil:
				ctx = WithSession(ctx, session)
			case errors.Is(err, ErrUnavailable):
				slog.Error("session verification unavailable", "error", err, "path", r.URL.Path)
				ctx = WithUnavailable(ctx, err)
			default:
				slog.Debug("session token rejected", "error", err, "path", r.URL.Path)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
