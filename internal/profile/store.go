package profile

import "context"

// Store persists profiles. Profiles are not change-tracked, so methods talk
// straight to the database without a unit-of-work querier.
type Store interface {
	Create(ctx context.Context, profile *Profile) error
	ByUserID(ctx context.Context, userID string) (*Profile, error)
	ByUserIDs(ctx context.Context, userIDs []string) (map[string]*Profile, error)
	Update(ctx context.Context, profile *Profile) error
}
