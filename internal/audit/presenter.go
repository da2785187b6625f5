package audit

import (
	"context"
	"fmt"
	"time"
)

// ActorProfile is the slice of a user profile the presenter needs to render
// an actor's display name. Resolved lazily so listing events does not depend
// on the profile module's full model.
type ActorProfile struct {
	UserID     string `json:"user_id"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// ProfileResolver resolves actor profiles in bulk for a page of events.
// Unknown user ids are simply absent from the result.
type ProfileResolver interface {
	ByUserIDs(ctx context.Context, userIDs []string) (map[string]*ActorProfile, error)
}

// PresentedEvent is an audit event decorated for display.
type PresentedEvent struct {
	ID          int64         `json:"id"`
	UserID      string        `json:"user_id,omitempty"`
	Table       string        `json:"table"`
	TableID     int64         `json:"table_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Description string        `json:"description"`
	Profile     *ActorProfile `json:"profile,omitempty"`
}

const descriptionTimeFormat = "Jan 02, 2006 at 15:04:05"

// Present renders the human-readable description for one event. profile may
// be nil when the actor is unknown or resolution was not requested.
func Present(event *Event, profile *ActorProfile) *PresentedEvent {
	verb := "updated"
	if event.After == nil {
		verb = "deleted"
	}
	description := fmt.Sprintf("%s %s by %s on %s...",
		resourceLabel(event),
		verb,
		actorName(profile),
		event.Timestamp.Format(descriptionTimeFormat),
	)
	return &PresentedEvent{
		ID:          event.ID,
		UserID:      event.UserID,
		Table:       event.Table,
		TableID:     event.TableID,
		Timestamp:   event.Timestamp,
		Description: description,
	}
}

// actorName prefers "family given", then email.
func actorName(p *ActorProfile) string {
	if p != nil {
		if p.FamilyName != "" && p.GivenName != "" {
			return p.FamilyName + " " + p.GivenName
		}
		if p.Email != "" {
			return p.Email
		}
	}
	return "Unknown user"
}

// resourceLabel renders an entity-specific label from whichever snapshot the
// event carries.
func resourceLabel(event *Event) string {
	snapshot := event.Before
	if snapshot == nil {
		snapshot = event.After
	}
	switch event.Table {
	case "taxon":
		if name, ok := snapshot.String("name"); ok && name != "" {
			return fmt.Sprintf("Taxon %s", name)
		}
		return fmt.Sprintf("Taxon(%d)", event.TableID)
	case "accession":
		code, _ := snapshot.String("code")
		return fmt.Sprintf("Accession %s", code)
	case "accession_item":
		code, _ := snapshot.String("code")
		return fmt.Sprintf("Accession item %s", code)
	case "location":
		if code, ok := snapshot.String("code"); ok && code != "" {
			return fmt.Sprintf("Location %s", code)
		}
		return fmt.Sprintf("Location(%d)", event.TableID)
	default:
		return "Unknown resource"
	}
}
