package profile

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

type ProfileServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *MemoryStore
	service *Service
}

func (s *ProfileServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithUserID(context.Background(), "user-7")
	s.store = NewMemoryStore()
	s.service = NewService(s.store, slog.New(slog.DiscardHandler))
}

func TestProfileServiceSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceSuite))
}

func (s *ProfileServiceSuite) TestCreateBindsToActingUser() {
	created, err := s.service.Create(s.ctx, &Profile{
		UserID:     "someone-else", // ignored; identity comes from the request
		Email:      "carl@example.com",
		GivenName:  "Carl",
		FamilyName: "Linnaeus",
	})
	s.Require().NoError(err)
	s.Equal("user-7", created.UserID)

	own, err := s.service.Own(s.ctx)
	s.Require().NoError(err)
	s.Equal("carl@example.com", own.Email)
}

func (s *ProfileServiceSuite) TestCreateTwiceConflicts() {
	_, err := s.service.Create(s.ctx, &Profile{Email: "carl@example.com"})
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, &Profile{Email: "carl@example.com"})
	s.True(dErrors.Is(err, dErrors.CodeConflict))
}

func (s *ProfileServiceSuite) TestUpdateRequiresExistingProfile() {
	_, err := s.service.Update(s.ctx, &Profile{Email: "new@example.com"})
	s.True(dErrors.Is(err, dErrors.CodeNotFound))

	_, err = s.service.Create(s.ctx, &Profile{Email: "old@example.com"})
	s.Require().NoError(err)

	updated, err := s.service.Update(s.ctx, &Profile{Email: "new@example.com"})
	s.Require().NoError(err)
	s.Equal("new@example.com", updated.Email)
}

func (s *ProfileServiceSuite) TestAnonymousIsRejected() {
	_, err := s.service.Own(context.Background())
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *ProfileServiceSuite) TestActorResolverMapsFields() {
	_, err := s.service.Create(s.ctx, &Profile{
		Email:      "carl@example.com",
		GivenName:  "Carl",
		FamilyName: "Linnaeus",
	})
	s.Require().NoError(err)

	resolver := NewActorResolver(s.store)
	actors, err := resolver.ByUserIDs(context.Background(), []string{"user-7", "ghost"})
	s.Require().NoError(err)
	s.Require().Len(actors, 1)
	s.Equal("Linnaeus", actors["user-7"].FamilyName)
	s.Equal("carl@example.com", actors["user-7"].Email)
}
