package invitation

import (
	"strings"
	"time"

	dErrors "verdant/pkg/domain-errors"
)

// Invitation lets an organization member bring a new user in as a guest. The
// token is a one-time secret delivered out of band; acknowledging it records
// when the invite was accepted.
type Invitation struct {
	ID             int64      `json:"id"`
	OrganizationID int64      `json:"organization_id"`
	Token          string     `json:"token,omitempty"`
	InvitedBy      string     `json:"invited_by"`
	Email          string     `json:"email"`
	Acknowledged   *time.Time `json:"acknowledged,omitempty"`
	CreatedAt      time.Time  `json:"created_at,omitempty"`
}

func (i *Invitation) Validate() error {
	email := strings.TrimSpace(i.Email)
	if email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if !strings.Contains(email, "@") {
		return dErrors.New(dErrors.CodeBadRequest, "email is malformed")
	}
	return nil
}
