package invitation

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"verdant/internal/audit"
	"verdant/internal/organization"
	"verdant/pkg/requestcontext"
)

type invalidationSpy struct {
	calls []string
}

func (s *invalidationSpy) Invalidate(_ context.Context, _ int64, userID string) {
	s.calls = append(s.calls, userID)
}

type InvitationServiceSuite struct {
	suite.Suite

	orgs    *organization.Service
	store   *MemoryStore
	spy     *invalidationSpy
	service *Service
	orgID   int64
}

func TestInvitationServiceSuite(t *testing.T) {
	suite.Run(t, new(InvitationServiceSuite))
}

func (s *InvitationServiceSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	recorder := audit.NewRecorder(audit.NewMemoryStore(), nil)
	orgStore := organization.NewMemoryStore()
	s.orgs = organization.NewService(orgStore, audit.Sessions(nil, recorder), nil, logger)

	org, err := s.orgs.Create(s.as("owner-1"), &organization.Organization{Name: "Jardin des Plantes"})
	s.Require().NoError(err)
	s.orgID = org.ID

	s.store = NewMemoryStore()
	s.spy = &invalidationSpy{}
	s.service = NewService(s.store, s.orgs, s.spy, logger)
}

func (s *InvitationServiceSuite) as(userID string) context.Context {
	return requestcontext.WithUserID(context.Background(), userID)
}

func (s *InvitationServiceSuite) TestCreateIssuesToken() {
	inv, err := s.service.Create(s.as("owner-1"), s.orgID, "friend@example.com")
	s.Require().NoError(err)

	s.NotZero(inv.ID)
	s.Equal("owner-1", inv.InvitedBy)
	s.Equal("friend@example.com", inv.Email)
	s.Nil(inv.Acknowledged)

	_, err = uuid.Parse(inv.Token)
	s.NoError(err, "token should be a uuid")
}

func (s *InvitationServiceSuite) TestCreateRequiresEmail() {
	_, err := s.service.Create(s.as("owner-1"), s.orgID, "  ")
	s.Require().Error(err)
	s.Contains(err.Error(), "email is required")

	_, err = s.service.Create(s.as("owner-1"), s.orgID, "not-an-address")
	s.Require().Error(err)
	s.Contains(err.Error(), "malformed")
}

func (s *InvitationServiceSuite) TestCreateRequiresActor() {
	_, err := s.service.Create(context.Background(), s.orgID, "friend@example.com")
	s.Require().Error(err)
	s.Contains(err.Error(), "authentication required")
}

func (s *InvitationServiceSuite) TestAcceptAssignsGuestRole() {
	inv, err := s.service.Create(s.as("owner-1"), s.orgID, "friend@example.com")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Accept(s.as("user-2"), inv.Token))

	role, err := s.orgs.RoleOf(context.Background(), s.orgID, "user-2")
	s.Require().NoError(err)
	s.Equal(organization.RoleGuest, role)

	stored, err := s.store.ByToken(context.Background(), inv.Token)
	s.Require().NoError(err)
	s.NotNil(stored.Acknowledged)

	s.Equal([]string{"user-2"}, s.spy.calls)
}

func (s *InvitationServiceSuite) TestAcceptRejectsUnknownToken() {
	err := s.service.Accept(s.as("user-2"), uuid.NewString())
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid invitation token")
}

func (s *InvitationServiceSuite) TestAcceptIsSingleUse() {
	inv, err := s.service.Create(s.as("owner-1"), s.orgID, "friend@example.com")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Accept(s.as("user-2"), inv.Token))

	err = s.service.Accept(s.as("user-3"), inv.Token)
	s.Require().Error(err)
	s.Contains(err.Error(), "already accepted")

	role, err := s.orgs.RoleOf(context.Background(), s.orgID, "user-3")
	s.Require().NoError(err)
	s.Empty(role)
}

func (s *InvitationServiceSuite) TestAcceptNeverDowngradesExistingMember() {
	inv, err := s.service.Create(s.as("owner-1"), s.orgID, "owner@example.com")
	s.Require().NoError(err)

	err = s.service.Accept(s.as("owner-1"), inv.Token)
	s.Require().Error(err)
	s.Contains(err.Error(), "already a member")

	role, err := s.orgs.RoleOf(context.Background(), s.orgID, "owner-1")
	s.Require().NoError(err)
	s.Equal(organization.RoleOwner, role)
}

func (s *InvitationServiceSuite) TestListBlanksTokens() {
	_, err := s.service.Create(s.as("owner-1"), s.orgID, "a@example.com")
	s.Require().NoError(err)
	_, err = s.service.Create(s.as("owner-1"), s.orgID, "b@example.com")
	s.Require().NoError(err)

	invitations, err := s.service.List(context.Background(), s.orgID)
	s.Require().NoError(err)
	s.Require().Len(invitations, 2)
	for _, inv := range invitations {
		s.Empty(inv.Token)
	}
	s.Equal("a@example.com", invitations[0].Email)
	s.WithinDuration(time.Now(), invitations[0].CreatedAt, time.Minute)
}
