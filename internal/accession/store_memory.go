package accession

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
	mu         sync.RWMutex
	nextID     int64
	nextItemID int64
	accessions map[int64]*Accession
	items      map[int64]*Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		nextItemID: 1,
		accessions: make(map[int64]*Accession),
		items:      make(map[int64]*Item),
	}
}

func (s *MemoryStore) Create(_ context.Context, _ audit.Querier, accession *Accession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accession.ID = s.nextID
	s.nextID++
	copied := *accession
	copied.Taxon = nil
	s.accessions[accession.ID] = &copied
	return nil
}

func (s *MemoryStore) ByID(_ context.Context, orgID, id int64) (*Accession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accession, ok := s.accessions[id]
	if !ok || accession.OrgID != orgID {
		return nil, dErrors.New(dErrors.CodeNotFound, "accession not found")
	}
	copied := *accession
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*Accession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Accession
	for _, accession := range s.accessions {
		if accession.OrgID != filter.OrgID {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(accession.Code), strings.ToLower(filter.Query)) {
			continue
		}
		copied := *accession
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Code != matched[j].Code {
			return matched[i].Code < matched[j].Code
		}
		return matched[i].ID < matched[j].ID
	})

	out := make([]*Accession, 0, filter.Limit)
	for _, accession := range matched {
		if filter.After != nil {
			if accession.Code < filter.After.Code {
				continue
			}
			if accession.Code == filter.After.Code && accession.ID <= filter.After.ID {
				continue
			}
		}
		out = append(out, accession)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, _ audit.Querier, accession *Accession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accessions[accession.ID]
	if !ok || existing.OrgID != accession.OrgID {
		return dErrors.New(dErrors.CodeNotFound, "accession not found")
	}
	copied := *accession
	copied.Taxon = nil
	s.accessions[accession.ID] = &copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, _ audit.Querier, orgID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accessions[id]
	if !ok || existing.OrgID != orgID {
		return dErrors.New(dErrors.CodeNotFound, "accession not found")
	}
	delete(s.accessions, id)
	for itemID, item := range s.items {
		if item.AccessionID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (s *MemoryStore) CreateItem(_ context.Context, _ audit.Querier, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = s.nextItemID
	s.nextItemID++
	copied := *item
	s.items[item.ID] = &copied
	return nil
}

func (s *MemoryStore) ItemsOf(_ context.Context, orgID, accessionID int64) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Item
	for _, item := range s.items {
		if item.OrgID != orgID || item.AccessionID != accessionID {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
