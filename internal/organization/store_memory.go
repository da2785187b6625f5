package organization

import (
	"context"
	"sort"
	"sync"
	"time"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	orgs    map[int64]*Organization
	members map[int64]map[string]*Member

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		orgs:    make(map[int64]*Organization),
		members: make(map[int64]map[string]*Member),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, _ audit.Querier, org *Organization, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	org.ID = s.nextID
	s.nextID++
	if org.DateCreated.IsZero() {
		org.DateCreated = s.now().UTC()
	}
	copied := *org
	s.orgs[org.ID] = &copied
	s.members[org.ID] = map[string]*Member{
		ownerID: {UserID: ownerID, OrganizationID: org.ID, Role: RoleOwner, CreatedAt: s.now().UTC()},
	}
	return nil
}

func (s *MemoryStore) ByID(_ context.Context, id int64) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	copied := *org
	return &copied, nil
}

func (s *MemoryStore) ListForUser(_ context.Context, userID string) ([]*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Organization
	for orgID, members := range s.members {
		if _, ok := members[userID]; !ok {
			continue
		}
		if org, ok := s.orgs[orgID]; ok {
			copied := *org
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, _ audit.Querier, org *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[org.ID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	copied := *org
	s.orgs[org.ID] = &copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, _ audit.Querier, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[id]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	delete(s.orgs, id)
	delete(s.members, id)
	return nil
}

func (s *MemoryStore) RoleOf(_ context.Context, orgID int64, userID string) (RoleType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.members[orgID][userID]; ok {
		return m.Role, nil
	}
	return "", nil
}

func (s *MemoryStore) Members(_ context.Context, orgID int64) ([]*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Member
	for _, m := range s.members[orgID] {
		copied := *m
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryStore) AssignRole(_ context.Context, _ audit.Querier, orgID int64, userID string, role RoleType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[orgID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	if s.members[orgID] == nil {
		s.members[orgID] = make(map[string]*Member)
	}
	s.members[orgID][userID] = &Member{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		CreatedAt:      s.now().UTC(),
	}
	return nil
}

func (s *MemoryStore) RemoveMember(_ context.Context, _ audit.Querier, orgID int64, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.members[orgID], userID)
	return nil
}
