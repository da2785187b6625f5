package permission

import (
	"context"
	"log/slog"
	"net/http"

	platformmw "verdant/internal/platform/middleware"
	"verdant/internal/transport/http/shared"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

// PermissionSource is the checker surface the middleware needs.
type PermissionSource interface {
	Has(ctx context.Context, orgID int64, userID, permission string) (bool, error)
}

// Middleware enforces permissions on organization-scoped routes. It runs
// after the membership middleware, so the organization scope is already in
// the request context.
type Middleware struct {
	checker PermissionSource
	logger  *slog.Logger
}

func NewMiddleware(checker PermissionSource, logger *slog.Logger) *Middleware {
	return &Middleware{checker: checker, logger: logger}
}

// Require rejects the request with 403 unless the acting user holds the
// permission within the scoped organization.
func (m *Middleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := platformmw.GetUserID(ctx)
			if userID == "" {
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}

			orgID := requestcontext.OrgID(ctx)
			if orgID == 0 {
				shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "organization not found"))
				return
			}

			allowed, err := m.checker.Has(ctx, orgID, userID, permission)
			if err != nil {
				m.logger.ErrorContext(ctx, "permission check failed",
					"error", err,
					"org_id", orgID,
					"permission", permission,
					"request_id", requestcontext.RequestID(ctx),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
				return
			}
			if !allowed {
				shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "permission denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
