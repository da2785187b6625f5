package permission

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"verdant/pkg/requestcontext"
)

type stubChecker struct {
	allowed map[string]bool
	err     error
}

func (c *stubChecker) Has(_ context.Context, _ int64, _, permission string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.allowed[permission], nil
}

type PermissionMiddlewareSuite struct {
	suite.Suite

	checker *stubChecker
	mw      *Middleware
}

func TestPermissionMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(PermissionMiddlewareSuite))
}

func (s *PermissionMiddlewareSuite) SetupTest() {
	s.checker = &stubChecker{allowed: map[string]bool{TaxaRead: true}}
	s.mw = NewMiddleware(s.checker, slog.New(slog.DiscardHandler))
}

func (s *PermissionMiddlewareSuite) serve(permission, userID string, orgID int64) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.With(s.mw.Require(permission)).Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := req.Context()
	if userID != "" {
		ctx = requestcontext.WithUserID(ctx, userID)
	}
	if orgID != 0 {
		ctx = requestcontext.WithOrgID(ctx, orgID)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func (s *PermissionMiddlewareSuite) TestAllowsPermittedUser() {
	rec := s.serve(TaxaRead, "user-1", 1)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *PermissionMiddlewareSuite) TestForbidsMissingPermission() {
	rec := s.serve(TaxaDelete, "user-1", 1)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "permission denied")
}

func (s *PermissionMiddlewareSuite) TestRejectsAnonymous() {
	rec := s.serve(TaxaRead, "", 1)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *PermissionMiddlewareSuite) TestRejectsMissingOrganizationScope() {
	rec := s.serve(TaxaRead, "user-1", 0)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *PermissionMiddlewareSuite) TestCheckerFailureIsOpaque() {
	s.checker.err = errors.New("redis connection reset")

	rec := s.serve(TaxaRead, "user-1", 1)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "redis")
}
