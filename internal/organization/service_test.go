package organization

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

type fakeDirectory struct {
	profiles map[string]*MemberProfile
}

func (f *fakeDirectory) ByUserIDs(_ context.Context, ids []string) (map[string]*MemberProfile, error) {
	out := make(map[string]*MemberProfile)
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type OrganizationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *MemoryStore
	trail   *audit.MemoryStore
	service *Service
}

func (s *OrganizationServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithUserID(context.Background(), "user-7")
	s.store = NewMemoryStore()
	s.trail = audit.NewMemoryStore()
	recorder := audit.NewRecorder(s.trail, nil)
	directory := &fakeDirectory{profiles: map[string]*MemberProfile{
		"user-7": {UserID: "user-7", Email: "carl@example.com"},
	}}
	s.service = NewService(s.store, audit.Sessions(nil, recorder), directory, slog.New(slog.DiscardHandler))
}

func TestOrganizationServiceSuite(t *testing.T) {
	suite.Run(t, new(OrganizationServiceSuite))
}

func (s *OrganizationServiceSuite) trailFor(orgID int64) []*audit.Event {
	events, err := s.trail.List(s.ctx, audit.ListFilter{OrgID: orgID, Limit: 100})
	s.Require().NoError(err)
	return events
}

func (s *OrganizationServiceSuite) create(name string) *Organization {
	org, err := s.service.Create(s.ctx, &Organization{Name: name})
	s.Require().NoError(err)
	return org
}

func (s *OrganizationServiceSuite) TestCreateMakesActorOwnerAndAuditsCreation() {
	org := s.create("Jardin Botanique")

	s.NotZero(org.ID)
	role, err := s.service.RoleOf(s.ctx, org.ID, "user-7")
	s.Require().NoError(err)
	s.Equal(RoleOwner, role)

	events := s.trailFor(org.ID)
	s.Require().Len(events, 1)
	s.Equal("organization", events[0].Table)
	s.Nil(events[0].Before)
	s.Equal("user-7", events[0].UserID)
	name, _ := events[0].After.String("name")
	s.Equal("Jardin Botanique", name)
}

func (s *OrganizationServiceSuite) TestCreateRequiresNameAndActor() {
	_, err := s.service.Create(s.ctx, &Organization{Name: "   "})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = s.service.Create(context.Background(), &Organization{Name: "x"})
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *OrganizationServiceSuite) TestUpdateAuditsChangedFields() {
	org := s.create("Jardin")

	updated, err := s.service.UpdateOrganization(s.ctx, org.ID, Update{Name: "Jardin Botanique", City: "Geneva"})
	s.Require().NoError(err)
	s.Equal("Jardin Botanique", updated.Name)

	events := s.trailFor(org.ID)
	s.Require().Len(events, 2)
	latest := events[0]
	s.NotNil(latest.Before)
	name, _ := latest.Before.String("name")
	s.Equal("Jardin", name)
	city, _ := latest.After.String("city")
	s.Equal("Geneva", city)
}

func (s *OrganizationServiceSuite) TestNoOpUpdateLeavesNoTrace() {
	org := s.create("Jardin")

	_, err := s.service.UpdateOrganization(s.ctx, org.ID, Update{Name: "Jardin"})
	s.Require().NoError(err)

	s.Len(s.trailFor(org.ID), 1) // only the creation event
}

func (s *OrganizationServiceSuite) TestDeleteAuditsFinalState() {
	org := s.create("Jardin")

	s.Require().NoError(s.service.DeleteOrganization(s.ctx, org.ID))

	_, err := s.service.ByID(s.ctx, org.ID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))

	events := s.trailFor(org.ID)
	s.Require().Len(events, 2)
	s.Nil(events[0].After)
	name, _ := events[0].Before.String("name")
	s.Equal("Jardin", name)
}

func (s *OrganizationServiceSuite) TestListReturnsOnlyOwnOrganizations() {
	mine := s.create("Mine")

	otherCtx := requestcontext.WithUserID(context.Background(), "user-8")
	_, err := s.service.Create(otherCtx, &Organization{Name: "Theirs"})
	s.Require().NoError(err)

	orgs, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(orgs, 1)
	s.Equal(mine.ID, orgs[0].ID)
}

func (s *OrganizationServiceSuite) TestMembersJoinProfiles() {
	org := s.create("Jardin")
	s.Require().NoError(s.service.AssignRole(s.ctx, org.ID, "user-9", RoleGuest))

	members, err := s.service.Members(s.ctx, org.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 2)

	byUser := make(map[string]*MemberDetail)
	for _, m := range members {
		byUser[m.UserID] = m
	}
	s.Equal(RoleOwner, byUser["user-7"].Role)
	s.Require().NotNil(byUser["user-7"].Profile)
	s.Equal("carl@example.com", byUser["user-7"].Profile.Email)
	s.Equal(RoleGuest, byUser["user-9"].Role)
	s.Nil(byUser["user-9"].Profile)
}

func (s *OrganizationServiceSuite) TestAssignRoleRejectsUnknownRole() {
	org := s.create("Jardin")
	err := s.service.AssignRole(s.ctx, org.ID, "user-9", RoleType("emperor"))
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}
