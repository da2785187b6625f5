package invitation

import (
	"context"
	"sort"
	"sync"
	"time"

	dErrors "verdant/pkg/domain-errors"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      int64
	invitations map[int64]*Invitation
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, invitations: make(map[int64]*Invitation), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, inv *Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv.ID = s.nextID
	s.nextID++
	inv.CreatedAt = s.now().UTC()
	copied := *inv
	s.invitations[inv.ID] = &copied
	return nil
}

func (s *MemoryStore) ByToken(_ context.Context, token string) (*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invitations {
		if inv.Token == token {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "invitation not found")
}

func (s *MemoryStore) ListForOrg(_ context.Context, orgID int64) ([]*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Invitation
	for _, inv := range s.invitations {
		if inv.OrganizationID != orgID {
			continue
		}
		copied := *inv
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Acknowledge(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "invitation not found")
	}
	at = at.UTC()
	inv.Acknowledged = &at
	return nil
}
