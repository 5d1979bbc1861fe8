package validation

import (
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation"

	"github.com/daap14/reportkit/internal/user"
)

const maxNameLength = 255

// SyncRequest mirrors the fields needed for user sync validation.
type SyncRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ValidateSyncRequest validates the fields of a sync request.
func ValidateSyncRequest(req SyncRequest) []FieldError {
	req.Email = strings.TrimSpace(req.Email)

	return fieldErrors(ozzo.ValidateStruct(&req,
		ozzo.Field(&req.Email,
			ozzo.Required.Error("email is required"),
			ozzo.RuneLength(0, 320).Error("email must be at most 320 characters"),
		),
		ozzo.Field(&req.FirstName,
			ozzo.RuneLength(0, maxNameLength).Error("firstName must be at most 255 characters"),
		),
		ozzo.Field(&req.LastName,
			ozzo.RuneLength(0, maxNameLength).Error("lastName must be at most 255 characters"),
		),
	))
}

// SetRoleRequest mirrors the fields needed for role change validation.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// ValidateSetRoleRequest validates the fields of a role change request.
func ValidateSetRoleRequest(req SetRoleRequest) []FieldError {
	return fieldErrors(ozzo.ValidateStruct(&req,
		ozzo.Field(&req.Role,
			ozzo.Required.Error("role is required"),
			ozzo.In(string(user.RoleUser), string(user.RoleAdmin)).Error(`role must be "user" or "admin"`),
		),
	))
}
