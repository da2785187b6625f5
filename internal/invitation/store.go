package invitation

import (
	"context"
	"time"
)

// Store persists invitations. Invitations are plumbing around membership, so
// they are not change-tracked.
type Store interface {
	Create(ctx context.Context, inv *Invitation) error
	ByToken(ctx context.Context, token string) (*Invitation, error)
	ListForOrg(ctx context.Context, orgID int64) ([]*Invitation, error)
	Acknowledge(ctx context.Context, id int64, at time.Time) error
}
