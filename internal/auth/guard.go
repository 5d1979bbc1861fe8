package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/daap14/reportkit/internal/identity"
	"github.com/daap14/reportkit/internal/user"
)

// ErrUnauthorized is returned when a request carries no verified identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when a verified identity lacks the required role.
var ErrForbidden = errors.New("forbidden")

// Level is the capability level of a caller. Levels are ordered.
type Level int

const (
	LevelAnonymous Level = iota
	LevelAuthenticated
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelAnonymous:
		return "anonymous"
	case LevelAuthenticated:
		return "authenticated"
	case LevelAdmin:
		return "admin"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// UserLookup resolves a local user record by external identity id.
type UserLookup interface {
	GetCurrentUser(ctx context.Context, externalID string) (*user.User, error)
}

// Guard classifies callers from scratch on every request. Nothing is cached
// between requests, so a role change takes effect on the next call.
type Guard struct {
	users UserLookup
}

// NewGuard creates a Guard that consults users for admin checks.
func NewGuard(users UserLookup) *Guard {
	return &Guard{users: users}
}

// ResolveIdentity returns the external id asserted for the request, or false
// when the caller is anonymous.
func (g *Guard) ResolveIdentity(r *http.Request) (string, bool) {
	s, ok := identity.FromContext(r.Context())
	if !ok || s.Subject == "" {
		return "", false
	}
	return s.Subject, true
}

// RequireAuthenticated returns the caller's external id or ErrUnauthorized.
// It performs no store lookup. A verifier that could not decide is reported
// as an internal error rather than as an anonymous caller.
func (g *Guard) RequireAuthenticated(r *http.Request) (string, error) {
	if id, ok := g.ResolveIdentity(r); ok {
		return id, nil
	}
	if err := identity.UnavailableFromContext(r.Context()); err != nil {
		return "", fmt.Errorf("resolving identity: %w", err)
	}
	return "", ErrUnauthorized
}

// RequireAdmin returns the caller's user record when it holds the admin role.
// A missing record or a non-admin role yields ErrForbidden; a failed lookup is
// returned as is so outages are not reported as authorization failures.
func (g *Guard) RequireAdmin(ctx context.Context, r *http.Request) (*user.User, error) {
	externalID, err := g.RequireAuthenticated(r)
	if err != nil {
		return nil, err
	}

	u, err := g.users.GetCurrentUser(ctx, externalID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("looking up role: %w", err)
	}

	if !u.IsAdmin() {
		return nil, ErrForbidden
	}

	return u, nil
}

// Classify returns the highest level the caller reaches. Anonymous callers
// are not an error; lookup failures are.
func (g *Guard) Classify(ctx context.Context, r *http.Request) (Level, error) {
	_, err := g.RequireAuthenticated(r)
	if errors.Is(err, ErrUnauthorized) {
		return LevelAnonymous, nil
	}
	if err != nil {
		return LevelAnonymous, err
	}

	_, err = g.RequireAdmin(ctx, r)
	switch {
	case err == nil:
		return LevelAdmin, nil
	case errors.Is(err, ErrForbidden):
		return LevelAuthenticated, nil
	default:
		return LevelAuthenticated, err
	}
}
