package permission

import "context"

// GrantStore persists per-user permission grants, which extend whatever the
// user's role already allows.
type GrantStore interface {
	Grant(ctx context.Context, orgID int64, userID, permission string) error
	Revoke(ctx context.Context, orgID int64, userID, permission string) error
	ListFor(ctx context.Context, orgID int64, userID string) ([]string, error)
}
