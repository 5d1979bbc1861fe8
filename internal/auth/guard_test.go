package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/reportkit/internal/auth"
	"github.com/daap14/reportkit/internal/identity"
	"github.com/daap14/reportkit/internal/user"
)

// mockLookup serves records from a map and counts calls.
type mockLookup struct {
	users map[string]*user.User
	err   error
	calls int
}

func (m *mockLookup) GetCurrentUser(_ context.Context, externalID string) (*user.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[externalID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func anonymousRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/", nil)
}

func requestAs(subject string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return r.WithContext(identity.WithSession(r.Context(), &identity.Session{Subject: subject}))
}

func newLookup() *mockLookup {
	return &mockLookup{users: map[string]*user.User{
		"user_admin":  {ID: uuid.New(), ExternalID: "user_admin", Role: user.RoleAdmin},
		"user_member": {ID: uuid.New(), ExternalID: "user_member", Role: user.RoleUser},
	}}
}

func TestResolveIdentity(t *testing.T) {
	g := auth.NewGuard(newLookup())

	id, ok := g.ResolveIdentity(anonymousRequest())
	assert.False(t, ok)
	assert.Empty(t, id)

	id, ok = g.ResolveIdentity(requestAs("user_member"))
	assert.True(t, ok)
	assert.Equal(t, "user_member", id)
}

func TestRequireAuthenticated_Anonymous(t *testing.T) {
	lookup := newLookup()
	g := auth.NewGuard(lookup)

	_, err := g.RequireAuthenticated(anonymousRequest())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Zero(t, lookup.calls, "authentication must not touch the store")
}

func TestRequireAuthenticated_UnknownUserStillAuthenticated(t *testing.T) {
	lookup := newLookup()
	g := auth.NewGuard(lookup)

	id, err := g.RequireAuthenticated(requestAs("user_not_synced"))
	require.NoError(t, err)
	assert.Equal(t, "user_not_synced", id)
	assert.Zero(t, lookup.calls)
}

func TestRequireAuthenticated_VerifierUnavailable(t *testing.T) {
	g := auth.NewGuard(newLookup())

	r := anonymousRequest()
	r = r.WithContext(identity.WithUnavailable(r.Context(), identity.ErrUnavailable))

	_, err := g.RequireAuthenticated(r)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrUnauthorized)
	assert.ErrorIs(t, err, identity.ErrUnavailable)
}

func TestRequireAdmin_Anonymous(t *testing.T) {
	lookup := newLookup()
	g := auth.NewGuard(lookup)

	_, err := g.RequireAdmin(context.Background(), anonymousRequest())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.NotErrorIs(t, err, auth.ErrForbidden)
	assert.Zero(t, lookup.calls)
}

func TestRequireAdmin_NonAdmin(t *testing.T) {
	g := auth.NewGuard(newLookup())

	_, err := g.RequireAdmin(context.Background(), requestAs("user_member"))
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestRequireAdmin_NoRecord(t *testing.T) {
	g := auth.NewGuard(newLookup())

	_, err := g.RequireAdmin(context.Background(), requestAs("user_not_synced"))
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestRequireAdmin_Admin(t *testing.T) {
	g := auth.NewGuard(newLookup())

	u, err := g.RequireAdmin(context.Background(), requestAs("user_admin"))
	require.NoError(t, err)
	assert.Equal(t, "user_admin", u.ExternalID)
}

func TestRequireAdmin_LookupFailureIsNotForbidden(t *testing.T) {
	storeErr := errors.New("store unreachable")
	g := auth.NewGuard(&mockLookup{err: storeErr})

	_, err := g.RequireAdmin(context.Background(), requestAs("user_admin"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, auth.ErrForbidden)
	assert.NotErrorIs(t, err, auth.ErrUnauthorized)
}

func TestRequireAdmin_NoCachingAcrossRequests(t *testing.T) {
	lookup := newLookup()
	g := auth.NewGuard(lookup)
	ctx := context.Background()

	_, err := g.RequireAdmin(ctx, requestAs("user_member"))
	assert.ErrorIs(t, err, auth.ErrForbidden)

	lookup.users["user_member"].Role = user.RoleAdmin

	_, err = g.RequireAdmin(ctx, requestAs("user_member"))
	assert.NoError(t, err)

	lookup.users["user_member"].Role = user.RoleUser

	_, err = g.RequireAdmin(ctx, requestAs("user_member"))
	assert.ErrorIs(t, err, auth.ErrForbidden)
	assert.Equal(t, 3, lookup.calls)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  *http.Request
		want auth.Level
	}{
		{name: "anonymous", req: anonymousRequest(), want: auth.LevelAnonymous},
		{name: "not synced", req: requestAs("user_not_synced"), want: auth.LevelAuthenticated},
		{name: "member", req: requestAs("user_member"), want: auth.LevelAuthenticated},
		{name: "admin", req: requestAs("user_admin"), want: auth.LevelAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := auth.NewGuard(newLookup())
			level, err := g.Classify(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestClassify_LookupFailure(t *testing.T) {
	g := auth.NewGuard(&mockLookup{err: errors.New("boom")})

	_, err := g.Classify(context.Background(), requestAs("user_admin"))
	assert.Error(t, err)
}

func TestLevel_Ordering(t *testing.T) {
	assert.Less(t, auth.LevelAnonymous, auth.LevelAuthenticated)
	assert.Less(t, auth.LevelAuthenticated, auth.LevelAdmin)
	assert.Equal(t, "admin", auth.LevelAdmin.String())
	assert.Equal(t, "anonymous", auth.LevelAnonymous.String())
}
