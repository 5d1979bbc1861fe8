package user

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and by local
// runs without DATABASE_URL. Records are copied in and out so callers never
// share state with the map.
type MemoryRepository struct {
	mu         sync.Mutex
	byExternal map[string]*User
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byExternal: make(map[string]*User)}
}

// FindByExternalID returns a copy of the stored record.
func (m *MemoryRepository) FindByExternalID(_ context.Context, externalID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byExternal[externalID]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// UpsertByExternalID creates or refreshes a record while holding the lock.
func (m *MemoryRepository) UpsertByExternalID(_ context.Context, externalID string, f UpsertFields) (*User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.byExternal[externalID]; ok {
		u.Email = f.Email
		u.DisplayName = f.DisplayName
		if f.Now.After(u.LastActiveAt) {
			u.LastActiveAt = f.Now
		}
		cp := *u
		return &cp, false, nil
	}

	u := &User{
		ID:                 uuid.New(),
		ExternalID:         externalID,
		Email:              f.Email,
		DisplayName:        f.DisplayName,
		Role:               RoleUser,
		SubscriptionStatus: SubscriptionTrial,
		Tier:               TierFree,
		RequestsLimit:      f.RequestsLimit,
		CreatedAt:          f.Now,
		LastActiveAt:       f.Now,
	}
	m.byExternal[externalID] = u

	cp := *u
	return &cp, true, nil
}

// List returns all records ordered by creation time.
func (m *MemoryRepository) List(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]User, 0, len(m.byExternal))
	for _, u := range m.byExternal {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// UpdateRole sets the role of the record with the given internal id.
func (m *MemoryRepository) UpdateRole(_ context.Context, id uuid.UUID, role Role) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byExternal {
		if u.ID == id {
			u.Role = role
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}
