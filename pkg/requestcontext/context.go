// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// The audit recorder attributes events to the acting user through this
// package rather than through a process global, so concurrent requests can
// never observe each other's actor. Middleware seeds the values; services
// and the audit engine only read them.
package requestcontext

import (
	"context"
	"time"
)

type (
	userIDKey      struct{}
	orgIDKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// UserID retrieves the authenticated user ID from the context. Returns ""
// when no actor has been established; the audit recorder treats that as an
// unknown actor rather than an error.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the authenticated user ID into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// OrgID retrieves the organization scope of the request. Returns 0 outside
// an organization-scoped route.
func OrgID(ctx context.Context) int64 {
	if v, ok := ctx.Value(orgIDKey{}).(int64); ok {
		return v
	}
	return 0
}

// WithOrgID injects the organization scope into the context. The membership
// middleware sets it after verifying the caller belongs to the organization.
func WithOrgID(ctx context.Context, orgID int64) context.Context {
	return context.WithValue(ctx, orgIDKey{}, orgID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts like workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for tests that
// need deterministic timestamps.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
