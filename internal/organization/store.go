package organization

import (
	"context"

	"verdant/internal/audit"
)

// Store persists organizations and memberships. Mutating methods take the
// unit-of-work querier so business writes share the caller's transaction
// with their audit records.
type Store interface {
	Create(ctx context.Context, q audit.Querier, org *Organization, ownerID string) error
	ByID(ctx context.Context, id int64) (*Organization, error)
	ListForUser(ctx context.Context, userID string) ([]*Organization, error)
	Update(ctx context.Context, q audit.Querier, org *Organization) error
	Delete(ctx context.Context, q audit.Querier, id int64) error

	// RoleOf returns the user's role, or "" when the user is not a member.
	RoleOf(ctx context.Context, orgID int64, userID string) (RoleType, error)
	Members(ctx context.Context, orgID int64) ([]*Member, error)
	AssignRole(ctx context.Context, q audit.Querier, orgID int64, userID string, role RoleType) error
	RemoveMember(ctx context.Context, q audit.Querier, orgID int64, userID string) error
}
