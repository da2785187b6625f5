package location

import (
	"context"
	"sort"
	"strings"
	"sync"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	locations map[int64]*Location
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, locations: make(map[int64]*Location)}
}

func (s *MemoryStore) Create(_ context.Context, _ audit.Querier, location *Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	location.ID = s.nextID
	s.nextID++
	copied := *location
	s.locations[location.ID] = &copied
	return nil
}

func (s *MemoryStore) ByID(_ context.Context, orgID, id int64) (*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	location, ok := s.locations[id]
	if !ok || location.OrgID != orgID {
		return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
	}
	copied := *location
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Location
	for _, location := range s.locations {
		if location.OrgID != filter.OrgID {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(location.Code), strings.ToLower(filter.Query)) {
			continue
		}
		copied := *location
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Code != matched[j].Code {
			return matched[i].Code < matched[j].Code
		}
		return matched[i].ID < matched[j].ID
	})

	out := make([]*Location, 0, filter.Limit)
	for _, location := range matched {
		if filter.After != nil {
			if location.Code < filter.After.Code {
				continue
			}
			if location.Code == filter.After.Code && location.ID <= filter.After.ID {
				continue
			}
		}
		out = append(out, location)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, _ audit.Querier, location *Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.locations[location.ID]
	if !ok || existing.OrgID != location.OrgID {
		return dErrors.New(dErrors.CodeNotFound, "location not found")
	}
	copied := *location
	s.locations[location.ID] = &copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, _ audit.Querier, orgID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.locations[id]
	if !ok || existing.OrgID != orgID {
		return dErrors.New(dErrors.CodeNotFound, "location not found")
	}
	delete(s.locations, id)
	return nil
}
