package taxon

import (
	"context"
	"log/slog"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ListOptions configures an org-scoped taxon listing.
type ListOptions struct {
	Query  string
	Cursor string
	Limit  int
	// IncludeParent expands each taxon's parent node.
	IncludeParent bool
}

// Page is one page of taxa. NextCursor is empty on the last page.
type Page struct {
	Taxa       []*Taxon
	NextCursor string
}

// Update carries the mutable taxon fields.
type Update struct {
	Name     string `json:"name"`
	Rank     string `json:"rank"`
	ParentID *int64 `json:"parent_id"`
}

// Service implements taxon operations.
type Service struct {
	store    Store
	sessions audit.SessionFactory
	logger   *slog.Logger
}

func NewService(store Store, sessions audit.SessionFactory, logger *slog.Logger) *Service {
	return &Service{store: store, sessions: sessions, logger: logger}
}

// Create persists a new taxon and audits the creation.
func (s *Service) Create(ctx context.Context, orgID int64, taxon *Taxon) (*Taxon, error) {
	taxon.OrgID = orgID
	if err := taxon.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, orgID, taxon.ParentID, 0); err != nil {
		return nil, err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Create(ctx, sess.Tx(), taxon); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create taxon", err)
	}
	sess.RegisterNew(taxon)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create taxon", err)
	}
	return taxon, nil
}

// ByID returns one taxon, optionally with its parent expanded.
func (s *Service) ByID(ctx context.Context, orgID, id int64, includeParent bool) (*Taxon, error) {
	taxon, err := s.store.ByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if includeParent && taxon.ParentID != nil {
		parent, err := s.store.ByID(ctx, orgID, *taxon.ParentID)
		if err != nil && !dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, err
		}
		taxon.Parent = parent
	}
	return taxon, nil
}

// List returns a page of the organization's taxa ordered by name.
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

	taxa, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list taxa", err)
	}

	if opts.IncludeParent {
		if err := s.expandParents(ctx, orgID, taxa); err != nil {
			return nil, err
		}
	}

	page := &Page{Taxa: taxa}
	if len(taxa) == limit {
		last := taxa[len(taxa)-1]
		page.NextCursor = EncodeCursor(Position{Name: last.Name, ID: last.ID})
	}
	return page, nil
}

// UpdateTaxon applies the update inside a unit of work so the change commits
// together with its audit record.
func (s *Service) UpdateTaxon(ctx context.Context, orgID, id int64, update Update) (*Taxon, error) {
	taxon, err := s.store.ByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	history := audit.HistoryOf(taxon)

	taxon.Name = update.Name
	taxon.Rank = update.Rank
	taxon.ParentID = update.ParentID
	if err := taxon.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, orgID, taxon.ParentID, id); err != nil {
		return nil, err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Update(ctx, sess.Tx(), taxon); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update taxon", err)
	}
	sess.RegisterDirty(taxon, history)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update taxon", err)
	}
	return taxon, nil
}

// DeleteTaxon removes the taxon and records the deletion with its final
// state.
func (s *Service) DeleteTaxon(ctx context.Context, orgID, id int64) error {
	taxon, err := s.store.ByID(ctx, orgID, id)
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
		return dErrors.Wrap(dErrors.CodeInternal, "delete taxon", err)
	}
	sess.RegisterDeleted(taxon, audit.HistoryOf(taxon))
	if err := sess.Commit(ctx); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "delete taxon", err)
	}
	return nil
}

// checkParent verifies a parent reference points at an existing taxon in the
// same organization and not at the taxon itself.
func (s *Service) checkParent(ctx context.Context, orgID int64, parentID *int64, selfID int64) error {
	if parentID == nil {
		return nil
	}
	if selfID != 0 && *parentID == selfID {
		return dErrors.New(dErrors.CodeBadRequest, "taxon cannot be its own parent")
	}
	if _, err := s.store.ByID(ctx, orgID, *parentID); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "parent taxon not found")
		}
		return err
	}
	return nil
}

func (s *Service) expandParents(ctx context.Context, orgID int64, taxa []*Taxon) error {
	byID := make(map[int64]*Taxon)
	for _, t := range taxa {
		byID[t.ID] = t
	}
	for _, t := range taxa {
		if t.ParentID == nil {
			continue
		}
		if parent, ok := byID[*t.ParentID]; ok {
			copied := *parent
			copied.Parent = nil
			t.Parent = &copied
			continue
		}
		parent, err := s.store.ByID(ctx, orgID, *t.ParentID)
		if err != nil {
			if dErrors.Is(err, dErrors.CodeNotFound) {
				continue
			}
			return err
		}
		t.Parent = parent
	}
	return nil
}
