package accession

import (
	"strings"

	"verdant/internal/audit"
	"verdant/internal/taxon"
	dErrors "verdant/pkg/domain-errors"
)

// Accession records the acquisition of plant material of one taxon.
type Accession struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	TaxonID int64  `json:"taxon_id"`
	OrgID   int64  `json:"org_id"`

	// Taxon is populated on demand via include=taxon.
	Taxon *taxon.Taxon `json:"taxon,omitempty"`
}

func (a *Accession) Validate() error {
	if strings.TrimSpace(a.Code) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "accession code is required")
	}
	if len(a.Code) > 64 {
		return dErrors.New(dErrors.CodeBadRequest, "accession code is too long")
	}
	if a.TaxonID == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "taxon is required")
	}
	return nil
}

func (a *Accession) AuditTable() string { return "accession" }
func (a *Accession) AuditID() int64     { return a.ID }

func (a *Accession) AuditFields() audit.Snapshot {
	return audit.Snapshot{
		"code":   a.Code,
		"org_id": a.OrgID,
	}
}

// AuditForeignKeys exposes the taxon link so reassigning an accession to a
// different taxon is detected even when nothing else changed.
func (a *Accession) AuditForeignKeys() audit.Snapshot {
	return audit.Snapshot{"taxon_id": a.TaxonID}
}

// ItemType classifies the physical material of an accession item.
type ItemType string

const (
	ItemPlant      ItemType = "plant"
	ItemSeed       ItemType = "seed"
	ItemVegetative ItemType = "vegetative"
	ItemTissue     ItemType = "tissue"
	ItemOther      ItemType = "other"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemPlant, ItemSeed, ItemVegetative, ItemTissue, ItemOther:
		return true
	}
	return false
}

// Item is one physical instance of an accession living at a location.
type Item struct {
	ID          int64    `json:"id"`
	Code        string   `json:"code"`
	ItemType    ItemType `json:"item_type"`
	AccessionID int64    `json:"accession_id"`
	LocationID  int64    `json:"location_id"`
	OrgID       int64    `json:"org_id"`
}

func (i *Item) Validate() error {
	if strings.TrimSpace(i.Code) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "item code is required")
	}
	if len(i.Code) > 12 {
		return dErrors.New(dErrors.CodeBadRequest, "item code is too long")
	}
	if !i.ItemType.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown item type")
	}
	if i.LocationID == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "location is required")
	}
	return nil
}

func (i *Item) AuditTable() string { return "accession_item" }
func (i *Item) AuditID() int64     { return i.ID }

func (i *Item) AuditFields() audit.Snapshot {
	return audit.Snapshot{
		"code":      i.Code,
		"item_type": string(i.ItemType),
		"org_id":    i.OrgID,
	}
}

func (i *Item) AuditForeignKeys() audit.Snapshot {
	return audit.Snapshot{
		"accession_id": i.AccessionID,
		"location_id":  i.LocationID,
	}
}
