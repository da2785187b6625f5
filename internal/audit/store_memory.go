package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	events []*Event

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: time.Now}
}

// WithClock overrides the timestamp source. Test seam.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Append(ctx context.Context, _ Querier, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *event
	stored.ID = s.nextID
	s.nextID++
	if stored.Timestamp.IsZero() {
		stored.Timestamp = s.now().UTC()
	}
	stored.Before = cloneSnapshot(event.Before)
	stored.After = cloneSnapshot(event.After)
	s.events = append(s.events, &stored)

	event.ID = stored.ID
	event.Timestamp = stored.Timestamp
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Event, 0, filter.Limit)
	// Stored in append order; walk backwards for newest-first.
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if !matchesOrg(e, filter.OrgID) {
			continue
		}
		if filter.Table != "" && e.Table != filter.Table {
			continue
		}
		if filter.Before != nil && !olderThan(e, filter.Before) {
			continue
		}
		copied := *e
		copied.Before = cloneSnapshot(e.Before)
		copied.After = cloneSnapshot(e.After)
		out = append(out, &copied)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// olderThan reports whether e is strictly older than the boundary, with the
// id breaking timestamp ties.
func olderThan(e *Event, b *Boundary) bool {
	if !e.Timestamp.Equal(b.Timestamp) {
		return e.Timestamp.Before(b.Timestamp)
	}
	return e.ID < b.ID
}

func matchesOrg(e *Event, orgID int64) bool {
	if v, ok := e.Before.Int64("org_id"); ok && v == orgID {
		return true
	}
	if v, ok := e.After.Int64("org_id"); ok && v == orgID {
		return true
	}
	return false
}

func cloneSnapshot(s Snapshot) Snapshot {
	if s == nil {
		return nil
	}
	c := make(Snapshot, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}
