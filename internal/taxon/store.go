package taxon

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// ListFilter narrows an org-scoped taxon listing. Results are ordered by
// (name, id) so the cursor is stable even when names repeat.
type ListFilter struct {
	OrgID int64
	// Query is a case-insensitive substring match on the name.
	Query string
	// After resumes listing past the given (name, id) position.
	After *Position
	Limit int
}

// Position is a (name, id) boundary in the listing order.
type Position struct {
	Name string
	ID   int64
}

// Store persists taxa. Mutating methods take the unit-of-work querier.
type Store interface {
	Create(ctx context.Context, q audit.Querier, taxon *Taxon) error
	ByID(ctx context.Context, orgID, id int64) (*Taxon, error)
	List(ctx context.Context, filter ListFilter) ([]*Taxon, error)
	Update(ctx context.Context, q audit.Querier, taxon *Taxon) error
	Delete(ctx context.Context, q audit.Querier, orgID, id int64) error
}

// EncodeCursor renders a listing position as an opaque cursor.
func EncodeCursor(p Position) string {
	raw := fmt.Sprintf("%s\x00%d", p.Name, p.ID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor back to its position.
func DecodeCursor(cursor string) (*Position, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	name, idRaw, ok := strings.Cut(string(raw), "\x00")
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	return &Position{Name: name, ID: id}, nil
}
