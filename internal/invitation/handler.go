package invitation

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

// Handler serves invitation endpoints.
type Handler struct {
	service *Service
	guard   Guard
	logger  *slog.Logger
}

func NewHandler(service *Service, guard Guard, logger *slog.Logger) *Handler {
	return &Handler{service: service, guard: guard, logger: logger}
}

// RegisterScoped mounts the routes under /orgs/{org_id}/invitations, behind
// the membership middleware.
func (h *Handler) RegisterScoped(r chi.Router) {
	r.With(h.guard.Require("organizations:users_invite")).Post("/", h.handleCreate)
	r.With(h.guard.Require("organizations:users_invite")).Get("/", h.handleList)
}

// Register mounts the accept route. It is not organization-scoped: the
// invitee is not a member yet, the token alone identifies the organization.
func (h *Handler) Register(r chi.Router) {
	r.Post("/{token}/accept", h.handleAccept)
}

type createRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	inv, err := h.service.Create(r.Context(), requestcontext.OrgID(r.Context()), req.Email)
	if err != nil {
		h.writeServiceError(w, r, "create invitation", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.service.List(r.Context(), requestcontext.OrgID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "list invitations", err)
		return
	}
	if invitations == nil {
		invitations = []*Invitation{}
	}
	shared.WriteJSON(w, http.StatusOK, invitations)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.service.Accept(r.Context(), token); err != nil {
		h.writeServiceError(w, r, "accept invitation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(r.Context(), "invitation request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"action", action,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to "+action))
	default:
		shared.WriteError(w, err)
	}
}
