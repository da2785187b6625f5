package location

import (
	"strings"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// Location is a named place in a collection where accession items live: a
// greenhouse, a bed, a seed bank shelf.
type Location struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	OrgID       int64  `json:"org_id"`
}

func (l *Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "location name is required")
	}
	if strings.TrimSpace(l.Code) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "location code is required")
	}
	if len(l.Name) > 64 || len(l.Code) > 64 {
		return dErrors.New(dErrors.CodeBadRequest, "location name or code is too long")
	}
	if len(l.Description) > 512 {
		return dErrors.New(dErrors.CodeBadRequest, "location description is too long")
	}
	return nil
}

func (l *Location) AuditTable() string { return "location" }
func (l *Location) AuditID() int64     { return l.ID }

func (l *Location) AuditFields() audit.Snapshot {
	return audit.Snapshot{
		"name":        l.Name,
		"code":        l.Code,
		"description": l.Description,
		"org_id":      l.OrgID,
	}
}

func (l *Location) AuditForeignKeys() audit.Snapshot { return audit.Snapshot{} }
