//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verdant/internal/audit"
	"verdant/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetPostgres(s.T())
	s.store = audit.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "activity"))
}

func (s *PostgresStoreSuite) append(table string, id int64, orgID int64, before, after audit.Snapshot) *audit.Event {
	event := &audit.Event{
		UserID:  "auth0|tester",
		Table:   table,
		TableID: id,
		Before:  before,
		After:   after,
	}
	if before != nil {
		before["org_id"] = orgID
	}
	if after != nil {
		after["org_id"] = orgID
	}
	s.Require().NoError(s.store.Append(context.Background(), nil, event))
	return event
}

func (s *PostgresStoreSuite) TestAppendAssignsIDAndTimestamp() {
	event := s.append("taxon", 7, 1, nil, audit.Snapshot{"name": "Rosa"})

	s.NotZero(event.ID)
	s.WithinDuration(time.Now(), event.Timestamp, time.Minute)
}

func (s *PostgresStoreSuite) TestSnapshotsSurviveJSONBRoundTrip() {
	s.append("taxon", 7, 1, audit.Snapshot{"name": "Rosa", "parent_id": nil}, audit.Snapshot{"name": "Rosa rugosa", "parent_id": int64(3)})

	events, err := s.store.List(context.Background(), audit.ListFilter{OrgID: 1, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(events, 1)

	name, ok := events[0].Before.String("name")
	s.True(ok)
	s.Equal("Rosa", name)

	parent, ok := events[0].After.Int64("parent_id")
	s.True(ok)
	s.Equal(int64(3), parent)

	s.Contains(events[0].Before, "parent_id")
	s.Nil(events[0].Before["parent_id"])
}

func (s *PostgresStoreSuite) TestListRecoversTenantFromEitherSnapshot() {
	s.append("taxon", 1, 1, nil, audit.Snapshot{"name": "Mine"})
	s.append("taxon", 2, 1, audit.Snapshot{"name": "Mine deleted"}, nil)
	s.append("taxon", 3, 2, nil, audit.Snapshot{"name": "Theirs"})

	events, err := s.store.List(context.Background(), audit.ListFilter{OrgID: 1, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	for _, e := range events {
		s.NotEqual(int64(3), e.TableID)
	}
}

func (s *PostgresStoreSuite) TestListOrdersNewestFirstAndHonorsBefore() {
	first := s.append("taxon", 1, 1, nil, audit.Snapshot{"name": "a"})
	s.append("taxon", 2, 1, nil, audit.Snapshot{"name": "b"})

	events, err := s.store.List(context.Background(), audit.ListFilter{OrgID: 1, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.True(events[0].Timestamp.After(events[1].Timestamp) || events[0].ID > events[1].ID)

	older, err := s.store.List(context.Background(), audit.ListFilter{
		OrgID:  1,
		Before: &audit.Boundary{Timestamp: events[0].Timestamp, ID: events[0].ID},
		Limit:  10,
	})
	s.Require().NoError(err)
	s.Require().Len(older, 1)
	s.Equal(first.TableID, older[0].TableID)
}

func (s *PostgresStoreSuite) TestBoundaryBreaksTimestampTies() {
	for i := int64(1); i <= 4; i++ {
		s.append("taxon", i, 1, nil, audit.Snapshot{"name": "Rosa"})
	}
	tied := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	_, err := s.postgres.DB.ExecContext(context.Background(), "UPDATE activity SET timestamp = $1", tied)
	s.Require().NoError(err)

	filter := audit.ListFilter{OrgID: 1, Limit: 2}
	seen := make(map[int64]int)
	for {
		events, err := s.store.List(context.Background(), filter)
		s.Require().NoError(err)
		if len(events) == 0 {
			break
		}
		for _, e := range events {
			seen[e.ID]++
		}
		last := events[len(events)-1]
		filter.Before = &audit.Boundary{Timestamp: last.Timestamp, ID: last.ID}
	}

	s.Len(seen, 4)
	for id, count := range seen {
		s.Equalf(1, count, "event %d appeared on more than one page", id)
	}
}

func (s *PostgresStoreSuite) TestListFiltersByTable() {
	s.append("taxon", 1, 1, nil, audit.Snapshot{"name": "a"})
	s.append("location", 2, 1, nil, audit.Snapshot{"code": "GH1"})

	events, err := s.store.List(context.Background(), audit.ListFilter{OrgID: 1, Table: "location", Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("location", events[0].Table)
}

func (s *PostgresStoreSuite) TestEmptyActorStoredAsNull() {
	event := &audit.Event{Table: "taxon", TableID: 9, After: audit.Snapshot{"org_id": 1}}
	s.Require().NoError(s.store.Append(context.Background(), nil, event))

	events, err := s.store.List(context.Background(), audit.ListFilter{OrgID: 1, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Empty(events[0].UserID)
}
