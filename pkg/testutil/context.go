package testutil

import (
	"net/http"

	"verdant/pkg/requestcontext"
)

// WithActor seeds the request context with an authenticated user ID, the way
// the auth middleware would for a valid bearer token.
func WithActor(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithOrgScope seeds both the actor and the organization scope, the state a
// request is in after passing the membership middleware.
func WithOrgScope(req *http.Request, userID string, orgID int64) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithOrgID(ctx, orgID)
	return req.WithContext(ctx)
}
