package accession

import (
	"context"
	"log/slog"

	"verdant/internal/audit"
	"verdant/internal/taxon"
	dErrors "verdant/pkg/domain-errors"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// TaxonDirectory checks taxon references and expands include=taxon.
// Satisfied by the taxon service.
type TaxonDirectory interface {
	ByID(ctx context.Context, orgID, id int64, includeParent bool) (*taxon.Taxon, error)
}

// LocationDirectory checks location references on items. Satisfied by the
// location service.
type LocationDirectory interface {
	Exists(ctx context.Context, orgID, id int64) (bool, error)
}

// ListOptions configures an org-scoped accession listing.
type ListOptions struct {
	Query  string
	Cursor string
	Limit  int
	// IncludeTaxon expands each accession's taxon.
	IncludeTaxon bool
}

// Page is one page of accessions. NextCursor is empty on the last page.
type Page struct {
	Accessions []*Accession
	NextCursor string
}

// Update carries the mutable accession fields.
type Update struct {
	Code    string `json:"code"`
	TaxonID int64  `json:"taxon_id"`
}

// Service implements accession operations.
type Service struct {
	store     Store
	sessions  audit.SessionFactory
	taxa      TaxonDirectory
	locations LocationDirectory
	logger    *slog.Logger
}

func NewService(store Store, sessions audit.SessionFactory, taxa TaxonDirectory, locations LocationDirectory, logger *slog.Logger) *Service {
	return &Service{store: store, sessions: sessions, taxa: taxa, locations: locations, logger: logger}
}

// Create persists a new accession and audits the creation.
func (s *Service) Create(ctx context.Context, orgID int64, accession *Accession) (*Accession, error) {
	accession.OrgID = orgID
	if err := accession.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkTaxon(ctx, orgID, accession.TaxonID); err != nil {
		return nil, err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Create(ctx, sess.Tx(), accession); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create accession", err)
	}
	sess.RegisterNew(accession)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create accession", err)
	}
	return accession, nil
}

// ByID returns one accession, optionally with its taxon expanded.
func (s *Service) ByID(ctx context.Context, orgID, id int64, includeTaxon bool) (*Accession, error) {
	accession, err := s.store.ByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if includeTaxon {
		t, err := s.taxa.ByID(ctx, orgID, accession.TaxonID, false)
		if err != nil && !dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, err
		}
		accession.Taxon = t
	}
	return accession, nil
}

// List returns a page of the organization's accessions ordered by code.
func (s *Service) List(ctx context.Context, orgID int64, opts ListOptions) (*Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := ListFilter{OrgID: orgID, Query: opts.Query, Limit: limit}
	if opts.Cursor != "" {
		after, err := DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, err
		}
		filter.After = after
	}

	accessions, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list accessions", err)
	}

	if opts.IncludeTaxon {
		for _, accession := range accessions {
			t, err := s.taxa.ByID(ctx, orgID, accession.TaxonID, false)
			if err != nil {
				if dErrors.Is(err, dErrors.CodeNotFound) {
					continue
				}
				return nil, err
			}
			accession.Taxon = t
		}
	}

	page := &Page{Accessions: accessions}
	if len(accessions) == limit {
		last := accessions[len(accessions)-1]
		page.NextCursor = EncodeCursor(Position{Code: last.Code, ID: last.ID})
	}
	return page, nil
}

// UpdateAccession applies the update inside a unit of work. Reassigning the
// taxon with an unchanged code still produces exactly one audit event, via
// the foreign-key half of the classifier.
func (s *Service) UpdateAccession(ctx context.Context, orgID, id int64, update Update) (*Accession, error) {
	accession, err := s.store.ByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	history := audit.HistoryOf(accession)

	accession.Code = update.Code
	accession.TaxonID = update.TaxonID
	if err := accession.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkTaxon(ctx, orgID, accession.TaxonID); err != nil {
		return nil, err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Update(ctx, sess.Tx(), accession); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update accession", err)
	}
	sess.RegisterDirty(accession, history)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update accession", err)
	}
	return accession, nil
}

// DeleteAccession removes the accession and records the deletion with its
// final state.
func (s *Service) DeleteAccession(ctx context.Context, orgID, id int64) error {
	accession, err := s.store.ByID(ctx, orgID, id)
	if err != nil {
		return err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Delete(ctx, sess.Tx(), orgID, id); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return err
		}
		return dErrors.Wrap(dErrors.CodeInternal, "delete accession", err)
	}
	sess.RegisterDeleted(accession, audit.HistoryOf(accession))
	if err := sess.Commit(ctx); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "delete accession", err)
	}
	return nil
}

// CreateItem adds a physical item under an accession and audits it.
func (s *Service) CreateItem(ctx context.Context, orgID, accessionID int64, item *Item) (*Item, error) {
	if _, err := s.store.ByID(ctx, orgID, accessionID); err != nil {
		return nil, err
	}
	item.OrgID = orgID
	item.AccessionID = accessionID
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if s.locations != nil {
		ok, err := s.locations.Exists(ctx, orgID, item.LocationID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "check location", err)
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeBadRequest, "location not found")
		}
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.CreateItem(ctx, sess.Tx(), item); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create accession item", err)
	}
	sess.RegisterNew(item)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create accession item", err)
	}
	return item, nil
}

// Items lists the physical items of an accession.
func (s *Service) Items(ctx context.Context, orgID, accessionID int64) ([]*Item, error) {
	if _, err := s.store.ByID(ctx, orgID, accessionID); err != nil {
		return nil, err
	}
	items, err := s.store.ItemsOf(ctx, orgID, accessionID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list accession items", err)
	}
	return items, nil
}

func (s *Service) checkTaxon(ctx context.Context, orgID, taxonID int64) error {
	if s.taxa == nil {
		return nil
	}
	if _, err := s.taxa.ByID(ctx, orgID, taxonID, false); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "taxon not found")
		}
		return err
	}
	return nil
}
