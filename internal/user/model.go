package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the capability level stored on a user record.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// SubscriptionStatus is owned by billing; the provisioning core only sets the default.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Tier is the plan a user is on.
type Tier string

const (
	TierFree   Tier = "free"
	TierPro    Tier = "pro"
	TierSchool Tier = "school"
)

// User represents a row in the users table.
type User struct {
	ID                     uuid.UUID
	ExternalID             string
	Email                  string
	DisplayName            string
	Role                   Role
	SubscriptionStatus     SubscriptionStatus
	Tier                   Tier
	RequestsUsedThisPeriod int
	RequestsLimit          int
	CreatedAt              time.Time
	LastActiveAt           time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile is the identity-provider view of a user sent on sync.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
}

// UpsertFields carries the values written by an upsert.
type UpsertFields struct {
	Email       string
	DisplayName string
	Now         time.Time
	// RequestsLimit is only applied when the row is created.
	RequestsLimit int
}
