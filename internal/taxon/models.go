package taxon

import (
	"strings"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// Taxon is a node in an organization's taxonomy. Parent links form a tree
// within the same organization.
type Taxon struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Rank     string `json:"rank"`
	ParentID *int64 `json:"parent_id,omitempty"`
	OrgID    int64  `json:"org_id"`

	// Parent is populated on demand via include=parent.
	Parent *Taxon `json:"parent,omitempty"`
}

// Ranks accepted for a taxon. Matches the usual botanical hierarchy.
var validRanks = map[string]struct{}{
	"family":     {},
	"subfamily":  {},
	"tribe":      {},
	"genus":      {},
	"section":    {},
	"species":    {},
	"subspecies": {},
	"variety":    {},
	"cultivar":   {},
}

func (t *Taxon) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "taxon name is required")
	}
	if len(t.Name) > 128 {
		return dErrors.New(dErrors.CodeBadRequest, "taxon name is too long")
	}
	if _, ok := validRanks[t.Rank]; !ok {
		return dErrors.New(dErrors.CodeBadRequest, "unknown taxon rank")
	}
	return nil
}

func (t *Taxon) AuditTable() string { return "taxon" }
func (t *Taxon) AuditID() int64     { return t.ID }

func (t *Taxon) AuditFields() audit.Snapshot {
	return audit.Snapshot{
		"name":   t.Name,
		"rank":   t.Rank,
		"org_id": t.OrgID,
	}
}

func (t *Taxon) AuditForeignKeys() audit.Snapshot {
	return audit.Snapshot{"parent_id": audit.NullableInt64(t.ParentID)}
}
