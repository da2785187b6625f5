package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists audit events in the activity table. Snapshots are
// stored as JSONB so the tenant filter can reach into them without a schema
// change per tracked entity.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, q Querier, event *Event) error {
	if q == nil {
		q = s.db
	}
	before, err := marshalSnapshot(event.Before)
	if err != nil {
		return fmt.Errorf("encode before snapshot: %w", err)
	}
	after, err := marshalSnapshot(event.After)
	if err != nil {
		return fmt.Errorf("encode after snapshot: %w", err)
	}

	query := `
		INSERT INTO activity (user_id, table_name, table_id, data_before, data_after)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, timestamp
	`
	row := q.QueryRowContext(ctx, query, nullString(event.UserID), event.Table, event.TableID, before, after)
	if err := row.Scan(&event.ID, &event.Timestamp); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// List returns events for one organization, newest first. The tenant is
// recovered from the org_id field inside either snapshot; events whose
// snapshots carry no org_id never match any organization.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Event, error) {
	query := `
		SELECT id, user_id, table_name, table_id, data_before, data_after, timestamp
		FROM activity
		WHERE ((data_before ->> 'org_id')::bigint = $1 OR (data_after ->> 'org_id')::bigint = $1)
	`
	args := []any{filter.OrgID}
	if filter.Before != nil {
		args = append(args, filter.Before.Timestamp, filter.Before.ID)
		query += fmt.Sprintf(" AND (timestamp, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	if filter.Table != "" {
		args = append(args, filter.Table)
		query += fmt.Sprintf(" AND table_name = $%d", len(args))
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (*Event, error) {
	var (
		event  Event
		userID sql.NullString
		before []byte
		after  []byte
	)
	if err := rows.Scan(&event.ID, &userID, &event.Table, &event.TableID, &before, &after, &event.Timestamp); err != nil {
		return nil, fmt.Errorf("scan activity row: %w", err)
	}
	event.UserID = userID.String
	if err := unmarshalSnapshot(before, &event.Before); err != nil {
		return nil, fmt.Errorf("decode before snapshot: %w", err)
	}
	if err := unmarshalSnapshot(after, &event.After); err != nil {
		return nil, fmt.Errorf("decode after snapshot: %w", err)
	}
	return &event, nil
}

func marshalSnapshot(s Snapshot) (any, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func unmarshalSnapshot(raw []byte, dst *Snapshot) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
