package audit

import (
	"context"
	"database/sql"
	"fmt"

	"verdant/internal/platform/metrics"
	"verdant/pkg/requestcontext"
)

// Querier is the subset of database/sql both *sql.Tx and *sql.DB satisfy.
// Stage-1 audit writes ride the business transaction; stage-2 writes for
// newly created entities go through the raw database handle.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Recorder converts classified changes into persisted audit events.
type Recorder struct {
	store   Store
	metrics *metrics.Metrics
}

func NewRecorder(store Store, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, metrics: m}
}

// Record builds an audit event for the entity and appends it through q.
//
// The actor is read from the request context; an absent actor yields an
// event with an empty user id rather than an error, since some code paths
// legitimately run outside a request. An entity without an identifier is a
// no-op: it cannot be attributed to a row yet.
//
// Creations carry no before snapshot and deletions no after snapshot,
// whatever the classifier produced. Append failures propagate to the caller
// untouched; durability follows the surrounding transaction's guarantees.
func (r *Recorder) Record(ctx context.Context, q Querier, entity Tracked, state State, before, after Snapshot) (*Event, error) {
	if entity.AuditID() == 0 {
		return nil, nil
	}

	if state == StateNew {
		before = nil
	}
	if state == StateDeleted {
		after = nil
	}

	event := &Event{
		UserID:  requestcontext.UserID(ctx),
		Table:   entity.AuditTable(),
		TableID: entity.AuditID(),
		Before:  before,
		After:   after,
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audit event for %s/%d: %w", event.Table, event.TableID, err)
	}

	if err := r.store.Append(ctx, q, event); err != nil {
		r.metrics.IncAuditFailure()
		return nil, err
	}
	r.metrics.IncAuditEvent(event.Table, string(state))
	return event, nil
}
