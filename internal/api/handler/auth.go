package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/daap14/reportkit/internal/api/middleware"
	"github.com/daap14/reportkit/internal/api/response"
	"github.com/daap14/reportkit/internal/api/validation"
	"github.com/daap14/reportkit/internal/user"
)

const maxBodyBytes = 1 << 20

type syncRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type userResponse struct {
	InternalID             string `json:"internalId"`
	Email                  string `json:"email"`
	DisplayName            string `json:"displayName"`
	Role                   string `json:"role"`
	SubscriptionStatus     string `json:"subscriptionStatus"`
	Tier                   string `json:"tier"`
	RequestsUsedThisPeriod int    `json:"requestsUsedThisPeriod"`
	RequestsLimit          int    `json:"requestsLimit"`
}

type currentUserResponse struct {
	userResponse
	CreatedAt    string `json:"createdAt"`
	LastActiveAt string `json:"lastActiveAt"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		InternalID:             u.ID.String(),
		Email:                  u.Email,
		DisplayName:            u.DisplayName,
		Role:                   string(u.Role),
		SubscriptionStatus:     string(u.SubscriptionStatus),
		Tier:                   string(u.Tier),
		RequestsUsedThisPeriod: u.RequestsUsedThisPeriod,
		RequestsLimit:          u.RequestsLimit,
	}
}

func toCurrentUserResponse(u *user.User) currentUserResponse {
	return currentUserResponse{
		userResponse: toUserResponse(u),
		CreatedAt:    formatTime(u.CreatedAt),
		LastActiveAt: formatTime(u.LastActiveAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// AuthHandler handles the user provisioning endpoints.
type AuthHandler struct {
	users *user.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users *user.Service) *AuthHandler {
	return &AuthHandler{users: users}
}

// Sync handles POST /api/auth/sync.
func (h *AuthHandler) Sync(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	externalID := middleware.GetExternalID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateSyncRequest(validation.SyncRequest{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u, err := h.users.Sync(r.Context(), externalID, user.Profile{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrMissingIdentity):
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
		case errors.Is(err, user.ErrEmailRequired):
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "email", Message: "email is required"}}, requestID)
		default:
			slog.Error("failed to sync user", "error", err, "externalId", externalID, "operation", "sync", "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sync user", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	externalID := middleware.GetExternalID(r.Context())

	u, err := h.users.GetCurrentUser(r.Context(), externalID)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrMissingIdentity):
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
		case errors.Is(err, user.ErrUserNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
		default:
			slog.Error("failed to get user", "error", err, "externalId", externalID, "operation", "me", "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch user", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, toCurrentUserResponse(u), requestID)
}
