package profile

import (
	"context"
	"sync"

	dErrors "verdant/pkg/domain-errors"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	profiles map[string]*Profile // keyed by user id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, profiles: make(map[string]*Profile)}
}

func (s *MemoryStore) Create(_ context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.UserID]; ok {
		return dErrors.New(dErrors.CodeConflict, "profile already exists")
	}
	profile.ID = s.nextID
	s.nextID++
	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}

func (s *MemoryStore) ByUserID(_ context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	copied := *profile
	return &copied, nil
}

func (s *MemoryStore) ByUserIDs(_ context.Context, userIDs []string) (map[string]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*Profile, len(userIDs))
	for _, userID := range userIDs {
		if profile, ok := s.profiles[userID]; ok {
			copied := *profile
			out[userID] = &copied
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.UserID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	profile.ID = existing.ID
	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}
