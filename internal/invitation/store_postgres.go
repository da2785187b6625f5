package invitation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dErrors "verdant/pkg/domain-errors"
)

// PostgresStore persists invitations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, inv *Invitation) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO invitation (organization_id, token, invited_by, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, inv.OrganizationID, inv.Token, inv.InvitedBy, inv.Email)
	if err := row.Scan(&inv.ID, &inv.CreatedAt); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByToken(ctx context.Context, token string) (*Invitation, error) {
	var (
		inv          Invitation
		acknowledged sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, token, invited_by, email, acknowledged, created_at
		FROM invitation
		WHERE token = $1
	`, token).Scan(&inv.ID, &inv.OrganizationID, &inv.Token, &inv.InvitedBy, &inv.Email, &acknowledged, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "invitation not found")
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	if acknowledged.Valid {
		inv.Acknowledged = &acknowledged.Time
	}
	return &inv, nil
}

func (s *PostgresStore) ListForOrg(ctx context.Context, orgID int64) ([]*Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, token, invited_by, email, acknowledged, created_at
		FROM invitation
		WHERE organization_id = $1
		ORDER BY id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var out []*Invitation
	for rows.Next() {
		var (
			inv          Invitation
			acknowledged sql.NullTime
		)
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.Token, &inv.InvitedBy, &inv.Email, &acknowledged, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("list invitations: %w", err)
		}
		if acknowledged.Valid {
			inv.Acknowledged = &acknowledged.Time
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Acknowledge(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invitation SET acknowledged = $2 WHERE id = $1
	`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("acknowledge invitation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "invitation not found")
	}
	return nil
}
