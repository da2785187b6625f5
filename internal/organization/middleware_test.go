package organization

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"verdant/pkg/requestcontext"
)

type staticChecker struct {
	roles map[string]RoleType // key: userID
	err   error
}

func (c *staticChecker) RoleOf(_ context.Context, _ int64, userID string) (RoleType, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.roles[userID], nil
}

func membershipRouter(checker MembershipChecker, onRequest func(r *http.Request)) chi.Router {
	r := chi.NewRouter()
	r.Route("/orgs/{org_id}", func(r chi.Router) {
		r.Use(RequireMember(checker, slog.New(slog.DiscardHandler)))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if onRequest != nil {
				onRequest(r)
			}
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func getAs(t *testing.T, router chi.Router, userID, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req = req.WithContext(requestcontext.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireMemberSeedsOrganizationScope(t *testing.T) {
	checker := &staticChecker{roles: map[string]RoleType{"user-7": RoleMember}}
	var seenOrg int64
	router := membershipRouter(checker, func(r *http.Request) {
		seenOrg = requestcontext.OrgID(r.Context())
	})

	rec := getAs(t, router, "user-7", "/orgs/42/")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(42), seenOrg)
}

func TestRequireMemberHidesOrganizationsFromNonMembers(t *testing.T) {
	checker := &staticChecker{roles: map[string]RoleType{}}
	router := membershipRouter(checker, nil)

	rec := getAs(t, router, "stranger", "/orgs/42/")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireMemberRejectsAnonymous(t *testing.T) {
	checker := &staticChecker{roles: map[string]RoleType{"user-7": RoleMember}}
	router := membershipRouter(checker, nil)

	rec := getAs(t, router, "", "/orgs/42/")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireMemberRejectsMalformedOrgID(t *testing.T) {
	checker := &staticChecker{roles: map[string]RoleType{"user-7": RoleMember}}
	router := membershipRouter(checker, nil)

	require.Equal(t, http.StatusNotFound, getAs(t, router, "user-7", "/orgs/rose/").Code)
	require.Equal(t, http.StatusNotFound, getAs(t, router, "user-7", "/orgs/-1/").Code)
}

func TestRequireMemberSurfacesCheckerFailure(t *testing.T) {
	checker := &staticChecker{err: errors.New("db down")}
	router := membershipRouter(checker, nil)

	rec := getAs(t, router, "user-7", "/orgs/42/")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "db down")
}
