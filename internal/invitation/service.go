package invitation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"verdant/internal/organization"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

// RoleDirectory is the slice of the organization service the invitation flow
// needs: checking existing membership and assigning the guest role.
type RoleDirectory interface {
	RoleOf(ctx context.Context, orgID int64, userID string) (organization.RoleType, error)
	AssignRole(ctx context.Context, orgID int64, userID string, role organization.RoleType) error
}

// CacheInvalidator drops a user's cached permission set after their role
// changes. May be nil when no permission cache is configured.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, orgID int64, userID string)
}

// Service implements the invitation flow: a member sends an invite, the
// invitee redeems the token and joins the organization as a guest.
type Service struct {
	store  Store
	roles  RoleDirectory
	perms  CacheInvalidator
	logger *slog.Logger
}

func NewService(store Store, roles RoleDirectory, perms CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{store: store, roles: roles, perms: perms, logger: logger}
}

// Create issues an invitation to the given email on behalf of the acting
// user. The token is returned once; it is the caller's job to deliver it.
func (s *Service) Create(ctx context.Context, orgID int64, email string) (*Invitation, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	inv := &Invitation{
		OrganizationID: orgID,
		Token:          uuid.NewString(),
		InvitedBy:      userID,
		Email:          email,
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create invitation", err)
	}
	return inv, nil
}

// List returns the invitations sent for an organization. Tokens are blanked
// so listing cannot be used to redeem someone else's invite.
func (s *Service) List(ctx context.Context, orgID int64) ([]*Invitation, error) {
	invitations, err := s.store.ListForOrg(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list invitations", err)
	}
	for _, inv := range invitations {
		inv.Token = ""
	}
	return invitations, nil
}

// Accept redeems an invitation token for the acting user, assigning them the
// guest role in the inviting organization. A token can be redeemed once;
// users who already belong to the organization cannot redeem at all, so an
// invite never downgrades an existing role.
func (s *Service) Accept(ctx context.Context, token string) error {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	inv, err := s.store.ByToken(ctx, token)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "invalid invitation token")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to look up invitation", err)
	}
	if inv.Acknowledged != nil {
		return dErrors.New(dErrors.CodeConflict, "invitation already accepted")
	}

	role, err := s.roles.RoleOf(ctx, inv.OrganizationID, userID)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to check membership", err)
	}
	if role != "" {
		return dErrors.New(dErrors.CodeConflict, "already a member of this organization")
	}

	if err := s.roles.AssignRole(ctx, inv.OrganizationID, userID, organization.RoleGuest); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to assign role", err)
	}
	if s.perms != nil {
		s.perms.Invalidate(ctx, inv.OrganizationID, userID)
	}

	if err := s.store.Acknowledge(ctx, inv.ID, requestcontext.Now(ctx)); err != nil {
		// The membership already exists; the invite just stays redeemable
		// until the acknowledgement write succeeds.
		s.logger.ErrorContext(ctx, "failed to acknowledge invitation",
			"error", err,
			"invitation_id", inv.ID,
		)
		return dErrors.Wrap(dErrors.CodeInternal, "failed to acknowledge invitation", err)
	}
	return nil
}
