package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"verdant/pkg/requestcontext"
)

// fakeTx observes commit/rollback ordering relative to store appends.
type fakeTx struct {
	nopTx
	name       string
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit() error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}

type appended struct {
	event       Event
	querier     Querier
	txCommitted bool
}

// capturingStore records every append along with whether the business
// transaction had already committed at that point.
type capturingStore struct {
	tx      *fakeTx
	records []appended
	failOn  string // table name that triggers an append failure
}

func (s *capturingStore) Append(_ context.Context, q Querier, event *Event) error {
	if s.failOn != "" && event.Table == s.failOn {
		return errors.New("append refused")
	}
	event.ID = int64(len(s.records) + 1)
	s.records = append(s.records, appended{event: *event, querier: q, txCommitted: s.tx.committed})
	return nil
}

func (s *capturingStore) List(context.Context, ListFilter) ([]*Event, error) {
	return nil, nil
}

type SessionSuite struct {
	suite.Suite
	ctx   context.Context
	tx    *fakeTx
	post  *fakeTx
	store *capturingStore
	sess  *Session
}

func (s *SessionSuite) SetupTest() {
	s.ctx = requestcontext.WithUserID(context.Background(), "user-7")
	s.tx = &fakeTx{name: "tx"}
	s.post = &fakeTx{name: "post"}
	s.store = &capturingStore{tx: s.tx}
	rec := NewRecorder(s.store, nil)
	s.sess = NewSession(s.tx, s.post, rec)
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) TestUpdateAuditedInsideTransaction() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}
	history := HistoryOf(entity)
	entity.name = "Rosa rugosa"

	s.sess.RegisterDirty(entity, history)
	s.Require().NoError(s.sess.Commit(s.ctx))

	s.Require().Len(s.store.records, 1)
	record := s.store.records[0]
	s.False(record.txCommitted, "update event must be written before the transaction commits")
	s.Same(s.tx, record.querier.(*fakeTx))
	s.Equal("user-7", record.event.UserID)
	s.Equal("taxon", record.event.Table)
	s.Equal(int64(7), record.event.TableID)
	s.Equal("Rosa", record.event.Before["name"])
	s.Equal("Rosa rugosa", record.event.After["name"])
	s.True(s.tx.committed)
}

func (s *SessionSuite) TestNoOpUpdateProducesNoEvent() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}
	s.sess.RegisterDirty(entity, HistoryOf(entity))

	s.Require().NoError(s.sess.Commit(s.ctx))

	s.Empty(s.store.records)
	s.True(s.tx.committed, "business transaction still commits")
}

func (s *SessionSuite) TestDeleteAuditedInsideTransaction() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}
	s.sess.RegisterDeleted(entity, HistoryOf(entity))

	s.Require().NoError(s.sess.Commit(s.ctx))

	s.Require().Len(s.store.records, 1)
	record := s.store.records[0]
	s.False(record.txCommitted)
	s.Equal("Rosa", record.event.Before["name"])
	s.Nil(record.event.After)
}

func (s *SessionSuite) TestCreationAuditedAfterCommitOnIndependentConnection() {
	entity := &taxonRecord{orgID: 1, name: "Rosa", rank: "genus"}
	s.sess.RegisterNew(entity)
	// The insert assigns the identifier before Commit runs.
	entity.id = 42

	s.Require().NoError(s.sess.Commit(s.ctx))

	s.Require().Len(s.store.records, 1)
	record := s.store.records[0]
	s.True(record.txCommitted, "creation event must be written after the transaction commits")
	s.Same(s.post, record.querier.(*fakeTx))
	s.Nil(record.event.Before)
	s.Equal("Rosa", record.event.After["name"])
	s.Equal(int64(42), record.event.TableID)
}

func (s *SessionSuite) TestCreationWithoutIdentifierIsSkipped() {
	s.sess.RegisterNew(&taxonRecord{orgID: 1, name: "Rosa"})

	s.Require().NoError(s.sess.Commit(s.ctx))

	s.Empty(s.store.records)
	s.True(s.tx.committed)
}

func (s *SessionSuite) TestAppendFailureRollsBackTransaction() {
	s.store.failOn = "taxon"
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}
	history := HistoryOf(entity)
	entity.name = "Rosa rugosa"
	s.sess.RegisterDirty(entity, history)

	err := s.sess.Commit(s.ctx)

	s.Require().Error(err)
	s.True(s.tx.rolledBack)
	s.False(s.tx.committed)
}

func (s *SessionSuite) TestPostCommitFailureSurfacesButCannotRollBack() {
	s.store.failOn = "taxon"
	entity := &taxonRecord{id: 42, orgID: 1, name: "Rosa"}
	s.sess.RegisterNew(entity)

	err := s.sess.Commit(s.ctx)

	s.Require().Error(err)
	s.True(s.tx.committed, "business change stays committed")
	s.False(s.tx.rolledBack)
}

func (s *SessionSuite) TestMissingActorRecordsEmptyUser() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}
	history := HistoryOf(entity)
	entity.name = "Rosa rugosa"
	s.sess.RegisterDirty(entity, history)

	s.Require().NoError(s.sess.Commit(context.Background()))

	s.Require().Len(s.store.records, 1)
	s.Empty(s.store.records[0].event.UserID)
}

func (s *SessionSuite) TestSessionClosesAfterCommit() {
	s.Require().NoError(s.sess.Commit(s.ctx))
	s.Require().ErrorIs(s.sess.Commit(s.ctx), ErrSessionClosed)
}

func (s *SessionSuite) TestRollbackAbandonsStagedEvents() {
	entity := &taxonRecord{id: 7, orgID: 1, name: "Rosa", rank: "genus"}
	history := HistoryOf(entity)
	entity.name = "Rosa rugosa"
	s.sess.RegisterDirty(entity, history)

	s.sess.Rollback()

	s.True(s.tx.rolledBack)
	s.Empty(s.store.records)
	s.Require().ErrorIs(s.sess.Commit(s.ctx), ErrSessionClosed)
}
