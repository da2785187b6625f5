package organization

import (
	"strings"
	"time"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// Organization is a tenant: a botanical collection with its own members,
// taxa, accessions and locations.
type Organization struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	ShortName     string     `json:"short_name,omitempty"`
	Address       string     `json:"address,omitempty"`
	City          string     `json:"city,omitempty"`
	State         string     `json:"state,omitempty"`
	Country       string     `json:"country,omitempty"`
	PostalCode    string     `json:"postal_code,omitempty"`
	DateApproved  *time.Time `json:"date_approved,omitempty"`
	DateCreated   time.Time  `json:"date_created"`
	DateSuspended *time.Time `json:"date_suspended,omitempty"`
}

func (o *Organization) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "organization name is required")
	}
	if len(o.Name) > 128 {
		return dErrors.New(dErrors.CodeBadRequest, "organization name is too long")
	}
	return nil
}

func (o *Organization) AuditTable() string { return "organization" }
func (o *Organization) AuditID() int64     { return o.ID }

// AuditFields includes the organization's own id as org_id so its events are
// visible under the tenant filter like every other tracked entity's.
func (o *Organization) AuditFields() audit.Snapshot {
	return audit.Snapshot{
		"name":        o.Name,
		"short_name":  o.ShortName,
		"address":     o.Address,
		"city":        o.City,
		"state":       o.State,
		"country":     o.Country,
		"postal_code": o.PostalCode,
		"org_id":      o.ID,
	}
}

func (o *Organization) AuditForeignKeys() audit.Snapshot { return audit.Snapshot{} }

// RoleType orders organization roles from most to least privileged.
type RoleType string

const (
	RoleOwner  RoleType = "owner"
	RoleAdmin  RoleType = "admin"
	RoleMember RoleType = "member"
	RoleGuest  RoleType = "guest"
)

// Valid reports whether r names a known role.
func (r RoleType) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleGuest:
		return true
	}
	return false
}

// Member is one user's membership in an organization.
type Member struct {
	UserID         string    `json:"user_id"`
	OrganizationID int64     `json:"organization_id"`
	Role           RoleType  `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}
