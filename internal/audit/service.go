package audit

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	dErrors "verdant/pkg/domain-errors"
)

const (
	// DefaultPageSize is applied when the caller does not pass a limit.
	DefaultPageSize = 50
	// MaxPageSize caps a caller-supplied limit.
	MaxPageSize = 200
)

// ListOptions configures an activity query.
type ListOptions struct {
	Cursor string
	Limit  int
	Table  string
	// IncludeProfile attaches the resolved actor profile to each event in
	// addition to using it for the description.
	IncludeProfile bool
}

// Page is one page of presented events. NextCursor is empty on the last page.
type Page struct {
	Events     []*PresentedEvent
	NextCursor string
}

// Service answers activity queries for one organization at a time.
type Service struct {
	store    Store
	profiles ProfileResolver
	logger   *slog.Logger
}

func NewService(store Store, profiles ProfileResolver, logger *slog.Logger) *Service {
	return &Service{store: store, profiles: profiles, logger: logger}
}

// List returns the organization's audit trail, newest first.
//
// Actor profiles are resolved in bulk for the page; a resolution failure
// degrades the descriptions to "Unknown user" instead of failing the query,
// since the trail itself is the primary payload.
func (s *Service) List(ctx context.Context, orgID int64, opts ListOptions) (*Page, error) {
	if orgID == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "organization is required")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := ListFilter{OrgID: orgID, Table: opts.Table, Limit: limit}
	if opts.Cursor != "" {
		boundary, err := DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, err
		}
		filter.Before = boundary
	}

	events, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list activity", err)
	}

	profiles := s.resolveProfiles(ctx, events)

	page := &Page{Events: make([]*PresentedEvent, 0, len(events))}
	for _, event := range events {
		profile := profiles[event.UserID]
		presented := Present(event, profile)
		if opts.IncludeProfile {
			presented.Profile = profile
		}
		page.Events = append(page.Events, presented)
	}
	if len(events) == limit {
		last := events[len(events)-1]
		page.NextCursor = EncodeCursor(Boundary{Timestamp: last.Timestamp, ID: last.ID})
	}
	return page, nil
}

func (s *Service) resolveProfiles(ctx context.Context, events []*Event) map[string]*ActorProfile {
	if s.profiles == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, event := range events {
		if event.UserID == "" {
			continue
		}
		if _, ok := seen[event.UserID]; ok {
			continue
		}
		seen[event.UserID] = struct{}{}
		ids = append(ids, event.UserID)
	}
	if len(ids) == 0 {
		return nil
	}
	profiles, err := s.profiles.ByUserIDs(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve actor profiles", "error", err.Error())
		return nil
	}
	return profiles
}

// EncodeCursor renders a feed boundary as an opaque cursor.
func EncodeCursor(b Boundary) string {
	raw := fmt.Sprintf("%s\x00%d", b.Timestamp.UTC().Format(time.RFC3339Nano), b.ID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor back to its boundary. A cursor that
// does not decode is a client error.
func DecodeCursor(cursor string) (*Boundary, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	tsRaw, idRaw, ok := strings.Cut(string(raw), "\x00")
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	return &Boundary{Timestamp: ts, ID: id}, nil
}
