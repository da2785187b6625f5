package audit

import (
	"encoding/json"
	"errors"
	"time"
)

// Snapshot is a field-name-to-value mapping capturing an entity's state at
// one point in time. Stored as JSONB in the activity table.
type Snapshot map[string]any

// Int64 reads a numeric snapshot value, tolerating the types a JSONB round
// trip can produce.
func (s Snapshot) Int64(key string) (int64, bool) {
	switch v := s[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// String reads a string snapshot value.
func (s Snapshot) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// State is the unit-of-work lifecycle state of an entity when its change was
// observed.
type State string

const (
	StateNew     State = "new"
	StateDirty   State = "dirty"
	StateDeleted State = "deleted"
)

// Event is one immutable audit record. A nil Before marks a creation, a nil
// After marks a deletion; at least one of the two is always present.
type Event struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Table     string    `json:"table"`
	TableID   int64     `json:"table_id"`
	Before    Snapshot  `json:"data_before,omitempty"`
	After     Snapshot  `json:"data_after,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate enforces the snapshot-presence invariant.
func (e *Event) Validate() error {
	if e.Table == "" {
		return errors.New("table is required")
	}
	if e.TableID == 0 {
		return errors.New("table_id is required")
	}
	if e.Before == nil && e.After == nil {
		return errors.New("event must carry a before or after snapshot")
	}
	return nil
}
