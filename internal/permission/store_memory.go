package permission

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryGrantStore is an in-memory GrantStore for tests and local
// development.
type MemoryGrantStore struct {
	mu     sync.RWMutex
	grants map[string]map[string]struct{} // key: org/user
}

func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{grants: make(map[string]map[string]struct{})}
}

func grantKey(orgID int64, userID string) string {
	return fmt.Sprintf("%d/%s", orgID, userID)
}

func (s *MemoryGrantStore) Grant(_ context.Context, orgID int64, userID, permission string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey(orgID, userID)
	if s.grants[key] == nil {
		s.grants[key] = make(map[string]struct{})
	}
	s.grants[key][permission] = struct{}{}
	return nil
}

func (s *MemoryGrantStore) Revoke(_ context.Context, orgID int64, userID, permission string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.grants[grantKey(orgID, userID)], permission)
	return nil
}

func (s *MemoryGrantStore) ListFor(_ context.Context, orgID int64, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grants := s.grants[grantKey(orgID, userID)]
	out := make([]string, 0, len(grants))
	for permission := range grants {
		out = append(out, permission)
	}
	sort.Strings(out)
	return out, nil
}
