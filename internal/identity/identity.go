// Package identity verifies identity-provider session tokens and attaches the
// verified session to the request context. It never rejects a request: the
// session guard in package auth decides what an absent session means.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// SessionCookie is the cookie the identity provider's frontend SDK sets.
const SessionCookie = "__session"

// ErrNoToken is returned when a request carries no session token.
var ErrNoToken = errors.New("no session token")

// ErrInvalidToken is returned when a token fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// ErrUnavailable is returned when verification could not complete in time.
var ErrUnavailable = errors.New("identity verification unavailable")

// Session is a verified identity assertion.
type Session struct {
	Subject         string
	SessionID       string
	AuthorizedParty string
	ExpiresAt       time.Time
}

// Verifier checks a raw session token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

type contextKey string

const resultKey contextKey = "identity"

type result struct {
	session *Session
	err     error
}

// WithSession returns a context carrying a verified session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, resultKey, &result{session: s})
}

// WithUnavailable returns a context recording that verification could not complete.
func WithUnavailable(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, resultKey, &result{err: err})
}

// FromContext returns the verified session, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	res, ok := ctx.Value(resultKey).(*result)
	if !ok || res.session == nil {
		return nil, false
	}
	return res.session, true
}

// UnavailableFromContext returns the verification failure recorded for the
// request when the verifier could not reach a decision.
func UnavailableFromContext(ctx context.Context) error {
	if res, ok := ctx.Value(resultKey).(*result); ok {
		return res.err
	}
	return nil
}

// TokenFromRequest extracts the session token from the Authorization bearer
// header, falling back to the session cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", ErrInvalidToken
		}
		return strings.TrimSpace(token), nil
	}

	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}

	return "", ErrNoToken
}
