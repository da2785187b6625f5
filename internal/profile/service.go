package profile

import (
	"context"
	"log/slog"

	"verdant/internal/audit"
	"verdant/internal/organization"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

// Service implements profile operations for the authenticated user.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Own returns the acting user's profile.
func (s *Service) Own(ctx context.Context) (*Profile, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.store.ByUserID(ctx, userID)
}

// Create stores the acting user's profile.
func (s *Service) Create(ctx context.Context, profile *Profile) (*Profile, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	profile.UserID = userID
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, profile); err != nil {
		if dErrors.Is(err, dErrors.CodeConflict) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create profile", err)
	}
	return profile, nil
}

// Update replaces the acting user's profile fields.
func (s *Service) Update(ctx context.Context, profile *Profile) (*Profile, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	profile.UserID = userID
	if err := s.store.Update(ctx, profile); err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update profile", err)
	}
	return profile, nil
}

// ByUserIDs resolves profiles in bulk for other modules.
func (s *Service) ByUserIDs(ctx context.Context, userIDs []string) (map[string]*Profile, error) {
	return s.store.ByUserIDs(ctx, userIDs)
}

// ActorResolver adapts the profile store to the activity presenter.
type ActorResolver struct {
	store Store
}

func NewActorResolver(store Store) *ActorResolver {
	return &ActorResolver{store: store}
}

func (r *ActorResolver) ByUserIDs(ctx context.Context, userIDs []string) (map[string]*audit.ActorProfile, error) {
	profiles, err := r.store.ByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*audit.ActorProfile, len(profiles))
	for userID, p := range profiles {
		out[userID] = &audit.ActorProfile{
			UserID:     p.UserID,
			GivenName:  p.GivenName,
			FamilyName: p.FamilyName,
			Email:      p.Email,
		}
	}
	return out, nil
}

// MemberResolver adapts the profile store to the organization member list.
type MemberResolver struct {
	store Store
}

func NewMemberResolver(store Store) *MemberResolver {
	return &MemberResolver{store: store}
}

func (r *MemberResolver) ByUserIDs(ctx context.Context, userIDs []string) (map[string]*organization.MemberProfile, error) {
	profiles, err := r.store.ByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*organization.MemberProfile, len(profiles))
	for userID, p := range profiles {
		out[userID] = &organization.MemberProfile{
			UserID:     p.UserID,
			Name:       p.Name,
			GivenName:  p.GivenName,
			FamilyName: p.FamilyName,
			Email:      p.Email,
			Picture:    p.Picture,
		}
	}
	return out, nil
}
