package audit

import (
	"context"
	"time"
)

// ListFilter narrows an audit query. OrgID is mandatory: events carry no
// tenant column of their own, so the store recovers the organization from
// the org_id field inside the stored snapshots.
type ListFilter struct {
	OrgID int64
	// Before restricts results to events strictly older than the given
	// boundary in (timestamp, id) order. Nil means newest-first from the
	// top.
	Before *Boundary
	// Table restricts results to one entity table when non-empty.
	Table string
	Limit int
}

// Boundary is a (timestamp, id) position in the newest-first feed order.
// Ordering on the id as a tiebreaker keeps page boundaries stable when
// events share a timestamp.
type Boundary struct {
	Timestamp time.Time
	ID        int64
}

// Store persists and queries audit events.
//
// Append writes through q so the caller controls transactional scope: the
// session passes its business transaction for dirty and deleted events and
// an independent connection for post-commit creations. Implementations that
// do not speak SQL ignore q.
type Store interface {
	Append(ctx context.Context, q Querier, event *Event) error
	List(ctx context.Context, filter ListFilter) ([]*Event, error)
}
