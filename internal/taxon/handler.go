package taxon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

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

// Handler serves taxon endpoints under /orgs/{org_id}/taxa.
type Handler struct {
	service *Service
	guard   Guard
	logger  *slog.Logger
}

func NewHandler(service *Service, guard Guard, logger *slog.Logger) *Handler {
	return &Handler{service: service, guard: guard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.With(h.guard.Require("taxa:read")).Get("/", h.handleList)
	r.With(h.guard.Require("taxa:create")).Post("/", h.handleCreate)
	r.With(h.guard.Require("taxa:read")).Get("/{taxon_id}", h.handleDetail)
	r.With(h.guard.Require("taxa:update")).Put("/{taxon_id}", h.handleUpdate)
	r.With(h.guard.Require("taxa:delete")).Delete("/{taxon_id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	opts := ListOptions{
		Query:  r.URL.Query().Get("query"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		opts.Limit = limit
	}
	for _, include := range r.URL.Query()["include"] {
		if include == "parent" {
			opts.IncludeParent = true
		}
	}

	page, err := h.service.List(r.Context(), requestcontext.OrgID(r.Context()), opts)
	if err != nil {
		h.writeServiceError(w, r, "list taxa", err)
		return
	}

	if page.NextCursor != "" {
		w.Header().Set("Link", fmt.Sprintf("<%s>; rel=next", nextPageURL(r, page.NextCursor)))
	}
	if page.Taxa == nil {
		page.Taxa = []*Taxon{}
	}
	shared.WriteJSON(w, http.StatusOK, page.Taxa)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var taxon Taxon
	if err := json.NewDecoder(r.Body).Decode(&taxon); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	taxon.ID = 0

	created, err := h.service.Create(r.Context(), requestcontext.OrgID(r.Context()), &taxon)
	if err != nil {
		h.writeServiceError(w, r, "create taxon", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "taxon_id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	includeParent := false
	for _, include := range r.URL.Query()["include"] {
		if include == "parent" {
			includeParent = true
		}
	}

	taxon, err := h.service.ByID(r.Context(), requestcontext.OrgID(r.Context()), id, includeParent)
	if err != nil {
		h.writeServiceError(w, r, "get taxon", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, taxon)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "taxon_id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	taxon, err := h.service.UpdateTaxon(r.Context(), requestcontext.OrgID(r.Context()), id, update)
	if err != nil {
		h.writeServiceError(w, r, "update taxon", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, taxon)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "taxon_id")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.DeleteTaxon(r.Context(), requestcontext.OrgID(r.Context()), id); err != nil {
		h.writeServiceError(w, r, "delete taxon", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(r.Context(), "taxon request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"action", action,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to "+action))
	default:
		shared.WriteError(w, err)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeNotFound, "not found")
	}
	return id, nil
}

func nextPageURL(r *http.Request, cursor string) string {
	u := *r.URL
	q := u.Query()
	q.Set("cursor", cursor)
	u.RawQuery = q.Encode()
	return u.String()
}
