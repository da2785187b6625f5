package audit

import (
	"context"
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

// Lister is the query surface the handler needs.
type Lister interface {
	List(ctx context.Context, orgID int64, opts ListOptions) (*Page, error)
}

// Handler serves the organization activity feed.
type Handler struct {
	service Lister
	logger  *slog.Logger
}

func NewHandler(service Lister, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the activity routes. The router mounts this under an
// organization-scoped, permission-checked subtree.
func (h *Handler) Register(r chi.Router) {
	r.Get("/activity", h.handleList)
}

// handleList returns the organization's audit trail. When a full page comes
// back, a Link header points at the next one.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "organization not found"))
		return
	}

	opts := ListOptions{
		Cursor: r.URL.Query().Get("cursor"),
		Table:  r.URL.Query().Get("table"),
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
		switch include {
		case "profile":
			opts.IncludeProfile = true
		default:
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown include %q", include)))
			return
		}
	}

	page, err := h.service.List(ctx, orgID, opts)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to list activity",
			"request_id", requestID,
			"org_id", orgID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list activity"))
		return
	}

	if page.NextCursor != "" {
		w.Header().Set("Link", fmt.Sprintf("<%s>; rel=next", nextPageURL(r, page.NextCursor)))
	}
	shared.WriteJSON(w, http.StatusOK, page.Events)
}

// nextPageURL rebuilds the request URL with the cursor swapped for the next
// boundary.
func nextPageURL(r *http.Request, cursor string) string {
	u := *r.URL
	q := u.Query()
	q.Set("cursor", cursor)
	u.RawQuery = q.Encode()
	return u.String()
}
