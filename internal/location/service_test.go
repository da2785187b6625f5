package location

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

type LocationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *MemoryStore
	trail   *audit.MemoryStore
	service *Service
}

func (s *LocationServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithUserID(context.Background(), "user-7")
	s.store = NewMemoryStore()
	s.trail = audit.NewMemoryStore()
	recorder := audit.NewRecorder(s.trail, nil)
	s.service = NewService(s.store, audit.Sessions(nil, recorder), slog.New(slog.DiscardHandler))
}

func TestLocationServiceSuite(t *testing.T) {
	suite.Run(t, new(LocationServiceSuite))
}

func (s *LocationServiceSuite) create(name, code string) *Location {
	location, err := s.service.Create(s.ctx, 1, &Location{Name: name, Code: code})
	s.Require().NoError(err)
	return location
}

func (s *LocationServiceSuite) trailEvents() []*audit.Event {
	events, err := s.trail.List(s.ctx, audit.ListFilter{OrgID: 1, Limit: 100})
	s.Require().NoError(err)
	return events
}

func (s *LocationServiceSuite) TestCreateAuditsCreation() {
	location := s.create("Greenhouse 1", "GH1")

	s.NotZero(location.ID)
	events := s.trailEvents()
	s.Require().Len(events, 1)
	s.Equal("location", events[0].Table)
	s.Nil(events[0].Before)
	code, _ := events[0].After.String("code")
	s.Equal("GH1", code)
}

func (s *LocationServiceSuite) TestCreateValidates() {
	_, err := s.service.Create(s.ctx, 1, &Location{Name: "", Code: "GH1"})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = s.service.Create(s.ctx, 1, &Location{Name: "Greenhouse", Code: " "})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *LocationServiceSuite) TestUpdateAuditsChangeAndNoOpDoesNot() {
	location := s.create("Greenhouse 1", "GH1")

	_, err := s.service.UpdateLocation(s.ctx, 1, location.ID, Update{Name: "Greenhouse 1", Code: "GH1"})
	s.Require().NoError(err)
	s.Len(s.trailEvents(), 1)

	_, err = s.service.UpdateLocation(s.ctx, 1, location.ID, Update{Name: "Alpine House", Code: "AH1"})
	s.Require().NoError(err)

	events := s.trailEvents()
	s.Require().Len(events, 2)
	code, _ := events[0].Before.String("code")
	s.Equal("GH1", code)
	code, _ = events[0].After.String("code")
	s.Equal("AH1", code)
}

func (s *LocationServiceSuite) TestDeleteAuditsFinalState() {
	location := s.create("Greenhouse 1", "GH1")

	s.Require().NoError(s.service.DeleteLocation(s.ctx, 1, location.ID))

	events := s.trailEvents()
	s.Require().Len(events, 2)
	s.Nil(events[0].After)

	exists, err := s.service.Exists(s.ctx, 1, location.ID)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *LocationServiceSuite) TestListPaginatesByCode() {
	s.create("Bed 2", "B2")
	s.create("Bed 1", "B1")
	s.create("Alpine House", "AH1")

	page, err := s.service.List(s.ctx, 1, ListOptions{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page.Locations, 2)
	s.Equal("AH1", page.Locations[0].Code)
	s.Equal("B1", page.Locations[1].Code)
	s.NotEmpty(page.NextCursor)

	page, err = s.service.List(s.ctx, 1, ListOptions{Limit: 2, Cursor: page.NextCursor})
	s.Require().NoError(err)
	s.Require().Len(page.Locations, 1)
	s.Equal("B2", page.Locations[0].Code)
}

func (s *LocationServiceSuite) TestExistsScopedToOrganization() {
	location := s.create("Greenhouse 1", "GH1")

	exists, err := s.service.Exists(s.ctx, 2, location.ID)
	s.Require().NoError(err)
	s.False(exists)
}
