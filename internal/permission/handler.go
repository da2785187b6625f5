package permission

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verdant/internal/platform/middleware"
	"verdant/internal/transport/http/shared"
	dErrors "verdant/pkg/domain-errors"
	"verdant/pkg/requestcontext"
)

// Guard produces permission-checking middleware for a named permission.
type Guard interface {
	Require(permission string) func(http.Handler) http.Handler
}

// Handler serves per-user permission grant endpoints under an organization.
type Handler struct {
	checker *Checker
	guard   Guard
	logger  *slog.Logger
}

func NewHandler(checker *Checker, guard Guard, logger *slog.Logger) *Handler {
	return &Handler{checker: checker, guard: guard, logger: logger}
}

// Register mounts the grant routes; the router places them under
// /orgs/{org_id}/users/{user_id}/permissions behind the membership
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.With(h.guard.Require("permissions:read")).Get("/", h.handleList)
	r.With(h.guard.Require("permissions:create")).Post("/", h.handleGrant)
	r.With(h.guard.Require("permissions:delete")).Delete("/", h.handleRevoke)
}

type grantRequest struct {
	Name string `json:"name"`
}

type permissionsResponse struct {
	UserID    string   `json:"user_id"`
	Grants    []string `json:"grants"`
	Effective []string `json:"effective"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	userID := chi.URLParam(r, "user_id")

	grants, err := h.checker.DirectGrants(ctx, orgID, userID)
	if err != nil {
		h.writeServiceError(w, r, "list permissions", err)
		return
	}
	effective, err := h.checker.PermissionsFor(ctx, orgID, userID)
	if err != nil {
		h.writeServiceError(w, r, "list permissions", err)
		return
	}
	if grants == nil {
		grants = []string{}
	}
	shared.WriteJSON(w, http.StatusOK, permissionsResponse{
		UserID:    userID,
		Grants:    grants,
		Effective: effective,
	})
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	userID := chi.URLParam(r, "user_id")
	if err := h.checker.Grant(ctx, requestcontext.OrgID(ctx), userID, req.Name); err != nil {
		h.writeServiceError(w, r, "grant permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := r.URL.Query().Get("name")
	if name == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing permission name"))
		return
	}

	userID := chi.URLParam(r, "user_id")
	if err := h.checker.Revoke(ctx, requestcontext.OrgID(ctx), userID, name); err != nil {
		h.writeServiceError(w, r, "revoke permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(r.Context(), "permission request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"action", action,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to "+action))
	default:
		shared.WriteError(w, err)
	}
}
