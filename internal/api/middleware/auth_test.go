package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/reportkit/internal/api/middleware"
	"github.com/daap14/reportkit/internal/auth"
	"github.com/daap14/reportkit/internal/identity"
	"github.com/daap14/reportkit/internal/user"
)

// mockLookup resolves user records from a map.
type mockLookup struct {
	users map[string]*user.User
	err   error
}

func (m *mockLookup) GetCurrentUser(_ context.Context, externalID string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[externalID]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func newGuard() *auth.Guard {
	return auth.NewGuard(&mockLookup{users: map[string]*user.User{
		"user_admin":  {ID: uuid.New(), ExternalID: "user_admin", Role: user.RoleAdmin},
		"user_member": {ID: uuid.New(), ExternalID: "user_member", Role: user.RoleUser},
	}})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(subject string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return r.WithContext(identity.WithSession(r.Context(), &identity.Session{Subject: subject}))
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseErrorResponse(t, w)
	apiErr, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "expected error object in envelope")
	return apiErr["code"].(string)
}

func TestRequireAuthenticated_Anonymous(t *testing.T) {
	handler := middleware.RequireAuthenticated(newGuard())(okHandler())
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestRequireAuthenticated_Authenticated(t *testing.T) {
	var captured string
	handler := middleware.RequireAuthenticated(newGuard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetExternalID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, requestAs("user_never_synced"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user_never_synced", captured)
}

func TestRequireAuthenticated_VerifierUnavailable(t *testing.T) {
	handler := middleware.RequireAuthenticated(newGuard())(okHandler())
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(identity.WithUnavailable(r.Context(), identity.ErrUnavailable))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

func TestGetExternalID_EmptyContext(t *testing.T) {
	assert.Empty(t, middleware.GetExternalID(context.Background()))
}

// --- RequireAdmin ---

func TestRequireAdmin_Anonymous(t *testing.T) {
	handler := middleware.RequireAdmin(newGuard())(okHandler())
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestRequireAdmin_NonAdmin(t *testing.T) {
	handler := middleware.RequireAdmin(newGuard())(okHandler())
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, requestAs("user_member"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestRequireAdmin_NotSynced(t *testing.T) {
	handler := middleware.RequireAdmin(newGuard())(okHandler())
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, requestAs("user_unknown"))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_Admin(t *testing.T) {
	var admin *user.User
	var externalID string
	handler := middleware.RequireAdmin(newGuard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin = middleware.GetAdmin(r.Context())
		externalID = middleware.GetExternalID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, requestAs("user_admin"))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, admin)
	assert.Equal(t, "user_admin", admin.ExternalID)
	assert.Equal(t, "user_admin", externalID)
}

func TestRequireAdmin_LookupFailure(t *testing.T) {
	guard := auth.NewGuard(&mockLookup{err: errors.New("store down")})
	handler := middleware.RequireAdmin(guard)(okHandler())
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, requestAs("user_admin"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

func TestGetAdmin_EmptyContext(t *testing.T) {
	assert.Nil(t, middleware.GetAdmin(context.Background()))
}
