package permission

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"verdant/internal/organization"
	"verdant/internal/platform/metrics"
	dErrors "verdant/pkg/domain-errors"
)

// RoleSource reports a user's role inside an organization. An empty role
// means the user is not a member.
type RoleSource interface {
	RoleOf(ctx context.Context, orgID int64, userID string) (organization.RoleType, error)
}

// Checker answers permission questions. A user holds a permission when their
// role expands to it or when it was granted to them directly. Computed sets
// are cached; grant and revoke invalidate the affected user's entry.
type Checker struct {
	grants  GrantStore
	roles   RoleSource
	cache   Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewChecker(grants GrantStore, roles RoleSource, cache Cache, m *metrics.Metrics, logger *slog.Logger) *Checker {
	return &Checker{grants: grants, roles: roles, cache: cache, metrics: m, logger: logger}
}

// Has reports whether the user holds the permission within the organization.
func (c *Checker) Has(ctx context.Context, orgID int64, userID, permission string) (bool, error) {
	permissions, err := c.PermissionsFor(ctx, orgID, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(permissions, permission), nil
}

// PermissionsFor returns the user's full permission set: the expansion of
// their role plus any direct grants. Non-members get an empty set.
func (c *Checker) PermissionsFor(ctx context.Context, orgID int64, userID string) ([]string, error) {
	if cached, ok := c.cachedSet(ctx, orgID, userID); ok {
		c.metrics.IncPermissionCacheHit()
		return cached, nil
	}
	c.metrics.IncPermissionCacheMiss()

	role, err := c.roles.RoleOf(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}

	granted, err := c.grants.ListFor(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}

	set := make(map[string]struct{}, len(RolePermissions[role])+len(granted))
	for _, p := range RolePermissions[role] {
		set[p] = struct{}{}
	}
	for _, p := range granted {
		set[p] = struct{}{}
	}

	permissions := make([]string, 0, len(set))
	for p := range set {
		permissions = append(permissions, p)
	}
	slices.Sort(permissions)

	if c.cache != nil {
		if err := c.cache.Set(ctx, orgID, userID, permissions); err != nil {
			c.logger.WarnContext(ctx, "failed to cache permission set",
				"error", err,
				"org_id", orgID,
			)
		}
	}
	return permissions, nil
}

func (c *Checker) cachedSet(ctx context.Context, orgID int64, userID string) ([]string, bool) {
	if c.cache == nil {
		return nil, false
	}
	permissions, ok, err := c.cache.Get(ctx, orgID, userID)
	if err != nil {
		c.logger.WarnContext(ctx, "permission cache read failed",
			"error", err,
			"org_id", orgID,
		)
		return nil, false
	}
	return permissions, ok
}

// Grant gives the user a direct permission on top of their role.
func (c *Checker) Grant(ctx context.Context, orgID int64, userID, permission string) error {
	if !Known(permission) {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown permission %q", permission))
	}
	role, err := c.roles.RoleOf(ctx, orgID, userID)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to resolve role", err)
	}
	if role == "" {
		return dErrors.New(dErrors.CodeNotFound, "user is not a member of this organization")
	}
	if err := c.grants.Grant(ctx, orgID, userID, permission); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to grant permission", err)
	}
	c.invalidate(ctx, orgID, userID)
	return nil
}

// Revoke removes a direct grant. Revoking a permission the role itself
// carries has no effect on the effective set.
func (c *Checker) Revoke(ctx context.Context, orgID int64, userID, permission string) error {
	if err := c.grants.Revoke(ctx, orgID, userID, permission); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to revoke permission", err)
	}
	c.invalidate(ctx, orgID, userID)
	return nil
}

// DirectGrants returns only the permissions granted to the user directly,
// without the role expansion.
func (c *Checker) DirectGrants(ctx context.Context, orgID int64, userID string) ([]string, error) {
	granted, err := c.grants.ListFor(ctx, orgID, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list permission grants", err)
	}
	return granted, nil
}

// Invalidate drops the cached permission set for the user. Callers that
// change a user's role must invalidate, or checks may see the old role for
// up to the cache TTL.
func (c *Checker) Invalidate(ctx context.Context, orgID int64, userID string) {
	c.invalidate(ctx, orgID, userID)
}

func (c *Checker) invalidate(ctx context.Context, orgID int64, userID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, orgID, userID); err != nil {
		c.logger.WarnContext(ctx, "permission cache invalidation failed",
			"error", err,
			"org_id", orgID,
		)
	}
}
