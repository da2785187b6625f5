package organization

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

// Handler serves organization endpoints.
type Handler struct {
	service *Service
	guard   Guard
	logger  *slog.Logger
}

func NewHandler(service *Service, guard Guard, logger *slog.Logger) *Handler {
	return &Handler{service: service, guard: guard, logger: logger}
}

// Register mounts the routes that are not organization-scoped: creating an
// organization and listing one's own.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
}

// RegisterScoped mounts the routes that live under /orgs/{org_id}; the
// router wraps them in the membership middleware.
func (h *Handler) RegisterScoped(r chi.Router) {
	r.With(h.guard.Require("organizations:read")).Get("/", h.handleDetail)
	r.With(h.guard.Require("organizations:update")).Put("/", h.handleUpdate)
	r.With(h.guard.Require("organizations:delete")).Delete("/", h.handleDelete)
	r.With(h.guard.Require("organizations:users_list")).Get("/users", h.handleMembers)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var org Organization
	if err := json.NewDecoder(r.Body).Decode(&org); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	org.ID = 0

	created, err := h.service.Create(ctx, &org)
	if err != nil {
		h.writeServiceError(w, r, "create organization", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list organizations", err)
		return
	}
	if orgs == nil {
		orgs = []*Organization{}
	}
	shared.WriteJSON(w, http.StatusOK, orgs)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.ByID(r.Context(), requestcontext.OrgID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "get organization", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	org, err := h.service.UpdateOrganization(r.Context(), requestcontext.OrgID(r.Context()), update)
	if err != nil {
		h.writeServiceError(w, r, "update organization", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrganization(r.Context(), requestcontext.OrgID(r.Context())); err != nil {
		h.writeServiceError(w, r, "delete organization", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.Members(r.Context(), requestcontext.OrgID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "list members", err)
		return
	}
	if members == nil {
		members = []*MemberDetail{}
	}
	shared.WriteJSON(w, http.StatusOK, members)
}

// writeServiceError passes client errors through and hides internal ones
// behind a generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(r.Context(), "organization request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"action", action,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to "+action))
	default:
		shared.WriteError(w, err)
	}
}
