package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daap14/reportkit/internal/api/middleware"
	"github.com/daap14/reportkit/internal/auth"
	"github.com/daap14/reportkit/internal/identity"
	"github.com/daap14/reportkit/internal/user"
)

func newUserService() (*user.Service, *user.MemoryRepository) {
	repo := user.NewMemoryRepository()
	return user.NewService(repo, user.ServiceConfig{RequestsLimit: 10}), repo
}

// authenticated wraps h the way the router does for signed-in routes.
func authenticated(svc *user.Service, h http.HandlerFunc) http.Handler {
	return middleware.RequestID(middleware.RequireAuthenticated(auth.NewGuard(svc))(h))
}

func newRequest(t *testing.T, method, target, subject string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	r := httptest.NewRequest(method, target, reader)
	if subject != "" {
		r = r.WithContext(identity.WithSession(r.Context(), &identity.Session{Subject: subject}))
	}
	return r
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func envelopeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := decodeEnvelope(t, w)["data"].(map[string]interface{})
	require.True(t, ok, "expected object in data: %s", w.Body.String())
	return data
}

func envelopeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	apiErr, ok := decodeEnvelope(t, w)["error"].(map[string]interface{})
	require.True(t, ok, "expected error in envelope: %s", w.Body.String())
	return apiErr["code"].(string)
}
