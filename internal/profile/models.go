package profile

import (
	"strings"

	dErrors "verdant/pkg/domain-errors"
)

// Profile is the display information for a user. Identity itself lives in
// the external identity provider; this is only what the application shows.
// Profiles carry no organization link and are not change-tracked.
type Profile struct {
	ID          int64  `json:"id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Name        string `json:"name,omitempty"`
	GivenName   string `json:"given_name,omitempty"`
	FamilyName  string `json:"family_name,omitempty"`
}

func (p *Profile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	return nil
}
