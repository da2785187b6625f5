package organization

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"verdant/internal/platform/middleware"
	"verdant/internal/transport/http/shared"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

// MembershipChecker answers whether a user belongs to an organization.
type MembershipChecker interface {
	RoleOf(ctx context.Context, orgID int64, userID string) (RoleType, error)
}

// RequireMember guards organization-scoped routes. It resolves {org_id} from
// the URL, verifies the authenticated user is a member, and seeds the
// organization scope into the request context for downstream handlers and
// the audit engine. Non-members get the same 404 as a missing organization
// so membership probing leaks nothing.
func RequireMember(checker MembershipChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			orgID, err := strconv.ParseInt(chi.URLParam(r, "org_id"), 10, 64)
			if err != nil || orgID <= 0 {
				shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "organization not found"))
				return
			}

			userID := middleware.GetUserID(ctx)
			if userID == "" {
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}

			role, err := checker.RoleOf(ctx, orgID, userID)
			if err != nil {
				logger.ErrorContext(ctx, "membership check failed",
					"request_id", middleware.GetRequestID(ctx),
					"org_id", orgID,
					"error", err.Error(),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "membership check failed"))
				return
			}
			if role == "" {
				shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "organization not found"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithOrgID(ctx, orgID)))
		})
	}
}
