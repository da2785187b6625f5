package taxon

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
	mu     sync.RWMutex
	nextID int64
	taxa   map[int64]*Taxon
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, taxa: make(map[int64]*Taxon)}
}

func (s *MemoryStore) Create(_ context.Context, _ audit.Querier, taxon *Taxon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taxon.ID = s.nextID
	s.nextID++
	copied := *taxon
	copied.Parent = nil
	s.taxa[taxon.ID] = &copied
	return nil
}

func (s *MemoryStore) ByID(_ context.Context, orgID, id int64) (*Taxon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	taxon, ok := s.taxa[id]
	if !ok || taxon.OrgID != orgID {
		return nil, dErrors.New(dErrors.CodeNotFound, "taxon not found")
	}
	copied := *taxon
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*Taxon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Taxon
	for _, taxon := range s.taxa {
		if taxon.OrgID != filter.OrgID {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(taxon.Name), strings.ToLower(filter.Query)) {
			continue
		}
		copied := *taxon
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	out := make([]*Taxon, 0, filter.Limit)
	for _, taxon := range matched {
		if filter.After != nil {
			if taxon.Name < filter.After.Name {
				continue
			}
			if taxon.Name == filter.After.Name && taxon.ID <= filter.After.ID {
				continue
			}
		}
		out = append(out, taxon)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, _ audit.Querier, taxon *Taxon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.taxa[taxon.ID]
	if !ok || existing.OrgID != taxon.OrgID {
		return dErrors.New(dErrors.CodeNotFound, "taxon not found")
	}
	copied := *taxon
	copied.Parent = nil
	s.taxa[taxon.ID] = &copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, _ audit.Querier, orgID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.taxa[id]
	if !ok || existing.OrgID != orgID {
		return dErrors.New(dErrors.CodeNotFound, "taxon not found")
	}
	delete(s.taxa, id)
	return nil
}
