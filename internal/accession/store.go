package accession

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// ListFilter narrows an org-scoped accession listing. Results are ordered by
// (code, id).
type ListFilter struct {
	OrgID int64
	// Query is a case-insensitive substring match on the code.
	Query string
	// After resumes listing past the given (code, id) position.
	After *Position
	Limit int
}

// Position is a (code, id) boundary in the listing order.
type Position struct {
	Code string
	ID   int64
}

// Store persists accessions and their items. Mutating methods take the
// unit-of-work querier.
type Store interface {
	Create(ctx context.Context, q audit.Querier, accession *Accession) error
	ByID(ctx context.Context, orgID, id int64) (*Accession, error)
	List(ctx context.Context, filter ListFilter) ([]*Accession, error)
	Update(ctx context.Context, q audit.Querier, accession *Accession) error
	Delete(ctx context.Context, q audit.Querier, orgID, id int64) error

	CreateItem(ctx context.Context, q audit.Querier, item *Item) error
	ItemsOf(ctx context.Context, orgID, accessionID int64) ([]*Item, error)
}

// EncodeCursor renders a listing position as an opaque cursor.
func EncodeCursor(p Position) string {
	raw := fmt.Sprintf("%s\x00%d", p.Code, p.ID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor back to its position.
func DecodeCursor(cursor string) (*Position, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	code, idRaw, ok := strings.Cut(string(raw), "\x00")
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed cursor")
	}
	return &Position{Code: code, ID: id}, nil
}
