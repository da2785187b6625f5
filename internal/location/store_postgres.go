package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// PostgresStore persists locations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) querier(q audit.Querier) audit.Querier {
	if q == nil {
		return s.db
	}
	return q
}

func (s *PostgresStore) Create(ctx context.Context, q audit.Querier, location *Location) error {
	row := s.querier(q).QueryRowContext(ctx, `
		INSERT INTO location (name, code, description, org_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, location.Name, location.Code, location.Description, location.OrgID)
	if err := row.Scan(&location.ID); err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByID(ctx context.Context, orgID, id int64) (*Location, error) {
	var (
		location    Location
		description sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, code, description, org_id
		FROM location
		WHERE org_id = $1 AND id = $2
	`, orgID, id).Scan(&location.ID, &location.Name, &location.Code, &description, &location.OrgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, fmt.Errorf("find location: %w", err)
	}
	location.Description = description.String
	return &location, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Location, error) {
	query := `
		SELECT id, name, code, description, org_id
		FROM location
		WHERE org_id = $1
	`
	args := []any{filter.OrgID}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(" AND code ILIKE $%d", len(args))
	}
	if filter.After != nil {
		args = append(args, filter.After.Code, filter.After.ID)
		query += fmt.Sprintf(" AND (code, id) > ($%d, $%d)", len(args)-1, len(args))
	}
	query += " ORDER BY code, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []*Location
	for rows.Next() {
		var (
			location    Location
			description sql.NullString
		)
		if err := rows.Scan(&location.ID, &location.Name, &location.Code, &description, &location.OrgID); err != nil {
			return nil, fmt.Errorf("list locations: %w", err)
		}
		location.Description = description.String
		out = append(out, &location)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, q audit.Querier, location *Location) error {
	result, err := s.querier(q).ExecContext(ctx, `
		UPDATE location
		SET name = $3, code = $4, description = $5
		WHERE org_id = $1 AND id = $2
	`, location.OrgID, location.ID, location.Name, location.Code, location.Description)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return requireRow(result, "location not found")
}

func (s *PostgresStore) Delete(ctx context.Context, q audit.Querier, orgID, id int64) error {
	result, err := s.querier(q).ExecContext(ctx, `
		DELETE FROM location WHERE org_id = $1 AND id = $2
	`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return requireRow(result, "location not found")
}

func requireRow(result sql.Result, message string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, message)
	}
	return nil
}
