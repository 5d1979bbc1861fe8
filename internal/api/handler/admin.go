package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daap14/reportkit/internal/api/middleware"
	"github.com/daap14/reportkit/internal/api/response"
	"github.com/daap14/reportkit/internal/api/validation"
	"github.com/daap14/reportkit/internal/user"
)

type adminUserResponse struct {
	currentUserResponse
	ExternalID string `json:"externalId"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// AdminHandler serves the admin dashboard endpoints.
type AdminHandler struct {
	users *user.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users *user.Service) *AdminHandler {
	return &AdminHandler{users: users}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err, "operation", "list_users", "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", requestID)
		return
	}

	items := make([]adminUserResponse, 0, len(users))
	for i := range users {
		items = append(items, adminUserResponse{
			currentUserResponse: toCurrentUserResponse(&users[i]),
			ExternalID:          users[i].ExternalID,
		})
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// SetRole handles PATCH /api/admin/users/{id}/role.
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateSetRoleRequest(validation.SetRoleRequest{Role: req.Role})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	role, _ := user.ParseRole(req.Role) // already validated

	if admin := middleware.GetAdmin(r.Context()); admin != nil && admin.ID == id && role != user.RoleAdmin {
		response.Err(w, http.StatusConflict, "SELF_DEMOTION", "Admins cannot remove their own admin role", requestID)
		return
	}

	u, err := h.users.SetRole(r.Context(), id, role)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to set role", "error", err, "id", id, "operation", "set_role", "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update role", requestID)
		return
	}

	response.Success(w, http.StatusOK, adminUserResponse{
		currentUserResponse: toCurrentUserResponse(u),
		ExternalID:          u.ExternalID,
	}, requestID)
}
