package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Tx is the business transaction a session wraps. *sql.Tx satisfies it; unit
// tests substitute a fake to observe commit/rollback ordering.
type Tx interface {
	Querier
	Commit() error
	Rollback() error
}

// ErrSessionClosed is returned when a session is committed twice.
var ErrSessionClosed = errors.New("audit session already closed")

// Session is one unit of work. Stores execute their SQL against Tx() and
// register the tracked entities they touched; Commit runs the two-stage
// audit protocol around the transaction commit.
//
// Stage 1 classifies and records dirty and deleted entities inside the
// business transaction, so those audit records are atomic with the mutation
// that caused them. Stage 2 runs after the transaction commits: newly
// inserted entities have identifiers only now, and the original transaction
// is gone, so their "created" events are written through an independent
// connection. A stage-2 failure surfaces as an error but cannot undo the
// already-committed business change; that non-atomicity is a documented
// property of the design, not a bug to paper over.
//
// A session belongs to a single request and is not safe for concurrent use.
type Session struct {
	tx   Tx
	post Querier
	rec  *Recorder

	created []Tracked
	dirty   []pending
	deleted []pending
	closed  bool
}

type pending struct {
	entity  Tracked
	history Snapshot
}

// Begin opens a session over a new database transaction. A nil db yields a
// transactionless session for memory-backed stores.
func Begin(ctx context.Context, db *sql.DB, rec *Recorder) (*Session, error) {
	if db == nil {
		return &Session{tx: nopTx{}, rec: rec}, nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin audit session: %w", err)
	}
	return &Session{tx: tx, post: db, rec: rec}, nil
}

// NewSession wires a session over an existing transaction. Test seam.
func NewSession(tx Tx, post Querier, rec *Recorder) *Session {
	return &Session{tx: tx, post: post, rec: rec}
}

// SessionFactory opens sessions; services hold one instead of the raw
// database handle.
type SessionFactory func(ctx context.Context) (*Session, error)

// Sessions returns a factory bound to db and rec.
func Sessions(db *sql.DB, rec *Recorder) SessionFactory {
	return func(ctx context.Context) (*Session, error) {
		return Begin(ctx, db, rec)
	}
}

// Tx exposes the business transaction for store SQL.
func (s *Session) Tx() Querier { return s.tx }

// RegisterNew marks an entity inserted during this unit of work. Its audit
// event is deferred to the post-commit stage.
func (s *Session) RegisterNew(e Tracked) {
	s.created = append(s.created, e)
}

// RegisterDirty marks an entity updated during this unit of work. history is
// the prior committed state captured before the update ran.
func (s *Session) RegisterDirty(e Tracked, history Snapshot) {
	s.dirty = append(s.dirty, pending{entity: e, history: history})
}

// RegisterDeleted marks an entity removed during this unit of work. snapshot
// is its last known full-field state.
func (s *Session) RegisterDeleted(e Tracked, snapshot Snapshot) {
	s.deleted = append(s.deleted, pending{entity: e, history: snapshot})
}

// Commit runs stage 1, commits the business transaction, then runs stage 2.
//
// Any error while classifying or recording in stage 1 rolls the whole
// transaction back: a tracked mutation never commits without its audit
// trail. Updates that changed nothing produce no event; deletions always
// produce one.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	for _, p := range s.dirty {
		before, after, changed := Classify(p.entity, p.history)
		if !changed {
			continue
		}
		if _, err := s.rec.Record(ctx, s.tx, p.entity, StateDirty, before, after); err != nil {
			s.tx.Rollback()
			return fmt.Errorf("record update audit event: %w", err)
		}
	}
	for _, p := range s.deleted {
		if _, err := s.rec.Record(ctx, s.tx, p.entity, StateDeleted, p.history, nil); err != nil {
			s.tx.Rollback()
			return fmt.Errorf("record delete audit event: %w", err)
		}
	}

	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}

	post := s.post
	if post == nil {
		post = s.tx
	}
	for _, e := range s.created {
		if e.AuditID() == 0 {
			// Insert never assigned an identifier; nothing to attribute.
			continue
		}
		_, after, _ := Classify(e, nil)
		if _, err := s.rec.Record(ctx, post, e, StateNew, nil, after); err != nil {
			return fmt.Errorf("record create audit event after commit: %w", err)
		}
	}
	return nil
}

// Rollback abandons the unit of work and every staged audit record. Safe to
// defer alongside Commit; it is a no-op once the session is closed.
func (s *Session) Rollback() {
	if s.closed {
		return
	}
	s.closed = true
	s.tx.Rollback()
}

// nopTx backs sessions for memory-backed stores, which manage their own
// state and never touch SQL.
type nopTx struct{}

func (nopTx) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}

func (nopTx) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, sql.ErrNoRows
}

func (nopTx) QueryRowContext(context.Context, string, ...any) *sql.Row { return nil }
func (nopTx) Commit() error                                            { return nil }
func (nopTx) Rollback() error                                          { return nil }
