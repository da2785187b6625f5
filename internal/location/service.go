package location

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

// ListOptions configures an org-scoped location listing.
type ListOptions struct {
	Query  string
	Cursor string
	Limit  int
}

// Page is one page of locations. NextCursor is empty on the last page.
type Page struct {
	Locations  []*Location
	NextCursor string
}

// Update carries the mutable location fields.
type Update struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Service implements location operations.
type Service struct {
	store    Store
	sessions audit.SessionFactory
	logger   *slog.Logger
}

func NewService(store Store, sessions audit.SessionFactory, logger *slog.Logger) *Service {
	return &Service{store: store, sessions: sessions, logger: logger}
}

// Create persists a new location and audits the creation.
func (s *Service) Create(ctx context.Context, orgID int64, location *Location) (*Location, error) {
	location.OrgID = orgID
	if err := location.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Create(ctx, sess.Tx(), location); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create location", err)
	}
	sess.RegisterNew(location)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create location", err)
	}
	return location, nil
}

func (s *Service) ByID(ctx context.Context, orgID, id int64) (*Location, error) {
	return s.store.ByID(ctx, orgID, id)
}

// Exists reports whether a location belongs to the organization. Consumed by
// the accession item flow.
func (s *Service) Exists(ctx context.Context, orgID, id int64) (bool, error) {
	_, err := s.store.ByID(ctx, orgID, id)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns a page of the organization's locations ordered by code.
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

	locations, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list locations", err)
	}

	page := &Page{Locations: locations}
	if len(locations) == limit {
		last := locations[len(locations)-1]
		page.NextCursor = EncodeCursor(Position{Code: last.Code, ID: last.ID})
	}
	return page, nil
}

// UpdateLocation applies the update inside a unit of work so the change
// commits together with its audit record.
func (s *Service) UpdateLocation(ctx context.Context, orgID, id int64, update Update) (*Location, error) {
	location, err := s.store.ByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	history := audit.HistoryOf(location)

	location.Name = update.Name
	location.Code = update.Code
	location.Description = update.Description
	if err := location.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Update(ctx, sess.Tx(), location); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update location", err)
	}
	sess.RegisterDirty(location, history)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update location", err)
	}
	return location, nil
}

// DeleteLocation removes the location and records the deletion with its
// final state.
func (s *Service) DeleteLocation(ctx context.Context, orgID, id int64) error {
	location, err := s.store.ByID(ctx, orgID, id)
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
		return dErrors.Wrap(dErrors.CodeInternal, "delete location", err)
	}
	sess.RegisterDeleted(location, audit.HistoryOf(location))
	if err := sess.Commit(ctx); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "delete location", err)
	}
	return nil
}
