package organization

import (
	"context"
	"log/slog"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

// MemberProfile is the display slice of a member's profile.
type MemberProfile struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Picture    string `json:"picture,omitempty"`
}

// ProfileDirectory resolves member profiles in bulk.
type ProfileDirectory interface {
	ByUserIDs(ctx context.Context, userIDs []string) (map[string]*MemberProfile, error)
}

// MemberDetail is a membership joined with the member's profile.
type MemberDetail struct {
	Member
	Profile *MemberProfile `json:"profile,omitempty"`
}

// Update carries the mutable organization fields.
type Update struct {
	Name       string `json:"name"`
	ShortName  string `json:"short_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// Service implements organization operations.
type Service struct {
	store    Store
	sessions audit.SessionFactory
	profiles ProfileDirectory
	logger   *slog.Logger
}

func NewService(store Store, sessions audit.SessionFactory, profiles ProfileDirectory, logger *slog.Logger) *Service {
	return &Service{store: store, sessions: sessions, profiles: profiles, logger: logger}
}

// Create persists a new organization with the acting user as owner.
func (s *Service) Create(ctx context.Context, org *Organization) (*Organization, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := org.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Create(ctx, sess.Tx(), org, userID); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create organization", err)
	}
	sess.RegisterNew(org)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create organization", err)
	}
	return org, nil
}

// List returns the organizations the acting user belongs to.
func (s *Service) List(ctx context.Context) ([]*Organization, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	orgs, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list organizations", err)
	}
	return orgs, nil
}

func (s *Service) ByID(ctx context.Context, id int64) (*Organization, error) {
	return s.store.ByID(ctx, id)
}

// UpdateOrganization applies the update inside a unit of work so the change
// is committed together with its audit record.
func (s *Service) UpdateOrganization(ctx context.Context, id int64, update Update) (*Organization, error) {
	org, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	history := audit.HistoryOf(org)

	org.Name = update.Name
	org.ShortName = update.ShortName
	org.Address = update.Address
	org.City = update.City
	org.State = update.State
	org.Country = update.Country
	org.PostalCode = update.PostalCode
	if err := org.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Update(ctx, sess.Tx(), org); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update organization", err)
	}
	sess.RegisterDirty(org, history)
	if err := sess.Commit(ctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update organization", err)
	}
	return org, nil
}

// DeleteOrganization removes the organization and records the deletion with
// its final state.
func (s *Service) DeleteOrganization(ctx context.Context, id int64) error {
	org, err := s.store.ByID(ctx, id)
	if err != nil {
		return err
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "open unit of work", err)
	}
	defer sess.Rollback()

	if err := s.store.Delete(ctx, sess.Tx(), id); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return err
		}
		return dErrors.Wrap(dErrors.CodeInternal, "delete organization", err)
	}
	sess.RegisterDeleted(org, audit.HistoryOf(org))
	if err := sess.Commit(ctx); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "delete organization", err)
	}
	return nil
}

// Members lists memberships joined with profiles. Profile resolution is best
// effort; a failure leaves profiles unset.
func (s *Service) Members(ctx context.Context, orgID int64) ([]*MemberDetail, error) {
	members, err := s.store.Members(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list members", err)
	}

	var profiles map[string]*MemberProfile
	if s.profiles != nil && len(members) > 0 {
		ids := make([]string, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
		profiles, err = s.profiles.ByUserIDs(ctx, ids)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to resolve member profiles",
				"org_id", orgID,
				"error", err.Error(),
			)
		}
	}

	out := make([]*MemberDetail, 0, len(members))
	for _, m := range members {
		out = append(out, &MemberDetail{Member: *m, Profile: profiles[m.UserID]})
	}
	return out, nil
}

// RoleOf returns the user's role in the organization, or "" for non-members.
func (s *Service) RoleOf(ctx context.Context, orgID int64, userID string) (RoleType, error) {
	return s.store.RoleOf(ctx, orgID, userID)
}

// AssignRole grants the user a role, replacing any existing one. Used by the
// invitation flow; memberships are not tracked entities.
func (s *Service) AssignRole(ctx context.Context, orgID int64, userID string, role RoleType) error {
	if !role.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown role")
	}
	if err := s.store.AssignRole(ctx, nil, orgID, userID, role); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return err
		}
		return dErrors.Wrap(dErrors.CodeInternal, "assign role", err)
	}
	return nil
}
