package permission

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresGrantStore persists user permission grants in PostgreSQL.
type PostgresGrantStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresGrantStore {
	return &PostgresGrantStore{db: db}
}

func (s *PostgresGrantStore) Grant(ctx context.Context, orgID int64, userID, permission string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_permission (organization_id, user_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id, name) DO NOTHING
	`, orgID, userID, permission)
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

func (s *PostgresGrantStore) Revoke(ctx context.Context, orgID int64, userID, permission string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM user_permission
		WHERE organization_id = $1 AND user_id = $2 AND name = $3
	`, orgID, userID, permission)
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	return nil
}

func (s *PostgresGrantStore) ListFor(ctx context.Context, orgID int64, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM user_permission
		WHERE organization_id = $1 AND user_id = $2
		ORDER BY name
	`, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("list permission grants: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan permission grant: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
