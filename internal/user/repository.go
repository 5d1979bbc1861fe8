package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no user record exists for the lookup key.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidRole is returned when a role string is not one of the known roles.
var ErrInvalidRole = errors.New("invalid role")

// Repository provides operations on the users table.
type Repository interface {
	// FindByExternalID returns ErrUserNotFound when the identity has never synced.
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	// UpsertByExternalID must be atomic with respect to concurrent calls for the same id.
	UpsertByExternalID(ctx context.Context, externalID string, fields UpsertFields) (*User, bool, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) (*User, error)
}
