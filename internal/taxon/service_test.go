package taxon

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

type TaxonServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *MemoryStore
	trail   *audit.MemoryStore
	service *Service
}

func (s *TaxonServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithUserID(context.Background(), "user-7")
	s.store = NewMemoryStore()
	s.trail = audit.NewMemoryStore()
	recorder := audit.NewRecorder(s.trail, nil)
	s.service = NewService(s.store, audit.Sessions(nil, recorder), slog.New(slog.DiscardHandler))
}

func TestTaxonServiceSuite(t *testing.T) {
	suite.Run(t, new(TaxonServiceSuite))
}

func (s *TaxonServiceSuite) create(name, rank string, parentID *int64) *Taxon {
	taxon, err := s.service.Create(s.ctx, 1, &Taxon{Name: name, Rank: rank, ParentID: parentID})
	s.Require().NoError(err)
	return taxon
}

func (s *TaxonServiceSuite) trailEvents() []*audit.Event {
	events, err := s.trail.List(s.ctx, audit.ListFilter{OrgID: 1, Limit: 100})
	s.Require().NoError(err)
	return events
}

func (s *TaxonServiceSuite) TestCreateAuditsCreation() {
	taxon := s.create("Rosa", "genus", nil)

	s.NotZero(taxon.ID)
	events := s.trailEvents()
	s.Require().Len(events, 1)
	s.Equal("taxon", events[0].Table)
	s.Equal(taxon.ID, events[0].TableID)
	s.Nil(events[0].Before)
	s.Equal("user-7", events[0].UserID)
}

func (s *TaxonServiceSuite) TestCreateValidates() {
	_, err := s.service.Create(s.ctx, 1, &Taxon{Name: "", Rank: "genus"})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = s.service.Create(s.ctx, 1, &Taxon{Name: "Rosa", Rank: "kingdom"})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))

	missing := int64(99)
	_, err = s.service.Create(s.ctx, 1, &Taxon{Name: "Rosa", Rank: "genus", ParentID: &missing})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *TaxonServiceSuite) TestRenameCarriesPriorNameInTrail() {
	taxon := s.create("Rosa", "genus", nil)

	_, err := s.service.UpdateTaxon(s.ctx, 1, taxon.ID, Update{Name: "Rosa rugosa", Rank: "species"})
	s.Require().NoError(err)

	events := s.trailEvents()
	s.Require().Len(events, 2)
	latest := events[0]
	name, _ := latest.Before.String("name")
	s.Equal("Rosa", name)
	name, _ = latest.After.String("name")
	s.Equal("Rosa rugosa", name)
}

func (s *TaxonServiceSuite) TestReparentAloneYieldsExactlyOneEvent() {
	rosa := s.create("Rosa", "genus", nil)
	quercus := s.create("Quercus", "genus", nil)
	species := s.create("Rosa rugosa", "species", &rosa.ID)

	_, err := s.service.UpdateTaxon(s.ctx, 1, species.ID, Update{
		Name:     species.Name,
		Rank:     species.Rank,
		ParentID: &quercus.ID,
	})
	s.Require().NoError(err)

	events, err := s.trail.List(s.ctx, audit.ListFilter{OrgID: 1, Table: "taxon", Limit: 100})
	s.Require().NoError(err)
	s.Require().Len(events, 4) // three creations plus exactly one reparent event

	latest := events[0]
	s.Equal(species.ID, latest.TableID)
	parentBefore, _ := latest.Before.Int64("parent_id")
	s.Equal(rosa.ID, parentBefore)
	parentAfter, _ := latest.After.Int64("parent_id")
	s.Equal(quercus.ID, parentAfter)
}

func (s *TaxonServiceSuite) TestNoOpUpdateLeavesNoTrace() {
	taxon := s.create("Rosa", "genus", nil)

	_, err := s.service.UpdateTaxon(s.ctx, 1, taxon.ID, Update{Name: "Rosa", Rank: "genus"})
	s.Require().NoError(err)

	s.Len(s.trailEvents(), 1)
}

func (s *TaxonServiceSuite) TestSelfParentRejected() {
	taxon := s.create("Rosa", "genus", nil)

	_, err := s.service.UpdateTaxon(s.ctx, 1, taxon.ID, Update{Name: "Rosa", Rank: "genus", ParentID: &taxon.ID})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *TaxonServiceSuite) TestDeleteAuditsFinalState() {
	taxon := s.create("Rosa", "genus", nil)

	s.Require().NoError(s.service.DeleteTaxon(s.ctx, 1, taxon.ID))

	events := s.trailEvents()
	s.Require().Len(events, 2)
	s.Nil(events[0].After)

	_, err := s.service.ByID(s.ctx, 1, taxon.ID, false)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *TaxonServiceSuite) TestListOrdersByNameAndPaginates() {
	s.create("Quercus", "genus", nil)
	s.create("Acer", "genus", nil)
	s.create("Rosa", "genus", nil)

	page, err := s.service.List(s.ctx, 1, ListOptions{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page.Taxa, 2)
	s.Equal("Acer", page.Taxa[0].Name)
	s.Equal("Quercus", page.Taxa[1].Name)
	s.Require().NotEmpty(page.NextCursor)

	page, err = s.service.List(s.ctx, 1, ListOptions{Limit: 2, Cursor: page.NextCursor})
	s.Require().NoError(err)
	s.Require().Len(page.Taxa, 1)
	s.Equal("Rosa", page.Taxa[0].Name)
}

func (s *TaxonServiceSuite) TestListPaginatesStablyWithDuplicateNames() {
	for i := 0; i < 3; i++ {
		s.create("Rosa", "genus", nil)
	}

	seen := make(map[int64]bool)
	cursor := ""
	for {
		page, err := s.service.List(s.ctx, 1, ListOptions{Limit: 2, Cursor: cursor})
		s.Require().NoError(err)
		for _, taxon := range page.Taxa {
			s.False(seen[taxon.ID], "taxon repeated across pages")
			seen[taxon.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	s.Len(seen, 3)
}

func (s *TaxonServiceSuite) TestListFiltersByQueryAndOrganization() {
	s.create("Rosa rugosa", "species", nil)
	s.create("Quercus robur", "species", nil)

	other, err := s.service.Create(s.ctx, 2, &Taxon{Name: "Rosa canina", Rank: "species"})
	s.Require().NoError(err)

	page, err := s.service.List(s.ctx, 1, ListOptions{Query: "rosa"})
	s.Require().NoError(err)
	s.Require().Len(page.Taxa, 1)
	s.Equal("Rosa rugosa", page.Taxa[0].Name)
	s.NotEqual(other.ID, page.Taxa[0].ID)
}

func (s *TaxonServiceSuite) TestIncludeParentExpandsRelation() {
	rosa := s.create("Rosa", "genus", nil)
	s.create("Rosa rugosa", "species", &rosa.ID)

	page, err := s.service.List(s.ctx, 1, ListOptions{IncludeParent: true})
	s.Require().NoError(err)
	s.Require().Len(page.Taxa, 2)

	var species *Taxon
	for _, t := range page.Taxa {
		if t.Rank == "species" {
			species = t
		}
	}
	s.Require().NotNil(species)
	s.Require().NotNil(species.Parent)
	s.Equal("Rosa", species.Parent.Name)
}

func (s *TaxonServiceSuite) TestMalformedCursorIsClientError() {
	_, err := s.service.List(s.ctx, 1, ListOptions{Cursor: "???"})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}
