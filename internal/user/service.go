package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMissingIdentity is returned when Sync is called without a verified identity.
var ErrMissingIdentity = errors.New("no verified identity")

// ErrEmailRequired is returned when a sync profile carries no email.
var ErrEmailRequired = errors.New("email is required")

// DefaultRequestsLimit is the quota assigned to new records when none is configured.
const DefaultRequestsLimit = 10

// ServiceConfig tunes the provisioning service.
type ServiceConfig struct {
	// RequestsLimit is assigned to records at creation. Zero means DefaultRequestsLimit.
	RequestsLimit int
	// StoreTimeout bounds every repository call. Zero disables the bound.
	StoreTimeout time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Service reconciles identity-provider profiles with local user records.
type Service struct {
	repo          Repository
	requestsLimit int
	storeTimeout  time.Duration
	now           func() time.Time
}

// NewService creates a new provisioning Service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	if cfg.RequestsLimit <= 0 {
		cfg.RequestsLimit = DefaultRequestsLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		repo:          repo,
		requestsLimit: cfg.RequestsLimit,
		storeTimeout:  cfg.StoreTimeout,
		now:           cfg.Now,
	}
}

// Sync creates the record for externalID on first call and refreshes email,
// display name and last-active time on every later call. Role, subscription,
// tier and counters are never touched after creation.
func (s *Service) Sync(ctx context.Context, externalID string, p Profile) (*User, error) {
	if externalID == "" {
		return nil, ErrMissingIdentity
	}

	email := strings.TrimSpace(p.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	u, created, err := s.repo.UpsertByExternalID(ctx, externalID, UpsertFields{
		Email:         email,
		DisplayName:   DisplayName(p.FirstName, p.LastName, email),
		Now:           s.now().UTC(),
		RequestsLimit: s.requestsLimit,
	})
	if err != nil {
		return nil, storeErr("sync", err)
	}

	if created {
		slog.Info("user provisioned", "externalId", externalID, "userId", u.ID)
	}

	return u, nil
}

// GetCurrentUser returns the record for externalID, or ErrUserNotFound when
// the identity has not synced yet.
func (s *Service) GetCurrentUser(ctx context.Context, externalID string) (*User, error) {
	if externalID == "" {
		return nil, ErrMissingIdentity
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	u, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("get current user", err)
	}
	return u, nil
}

// List returns every user record.
func (s *Service) List(ctx context.Context) ([]User, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// SetRole changes the role of a user. This is the only path that grants admin.
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, role Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	u, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("set role", err)
	}

	slog.Info("user role changed", "userId", id, "role", role)
	return u, nil
}

// storeContext detaches the store call from caller cancellation so a write is
// never abandoned halfway, while still bounding how long it may take.
func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: store timed out: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// DisplayName joins the non-empty name parts with a single space and falls
// back to the local part of the email when both are empty.
func DisplayName(firstName, lastName, email string) string {
	var parts []string
	for _, p := range []string{firstName, lastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	local, _, _ := strings.Cut(email, "@")
	return local
}
