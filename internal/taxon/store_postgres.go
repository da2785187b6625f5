package taxon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// PostgresStore persists taxa in PostgreSQL.
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

func (s *PostgresStore) Create(ctx context.Context, q audit.Querier, taxon *Taxon) error {
	row := s.querier(q).QueryRowContext(ctx, `
		INSERT INTO taxon (name, rank, parent_id, org_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, taxon.Name, taxon.Rank, nullInt64(taxon.ParentID), taxon.OrgID)
	if err := row.Scan(&taxon.ID); err != nil {
		return fmt.Errorf("insert taxon: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByID(ctx context.Context, orgID, id int64) (*Taxon, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, rank, parent_id, org_id
		FROM taxon
		WHERE org_id = $1 AND id = $2
	`, orgID, id)

	taxon, err := scanTaxon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "taxon not found")
		}
		return nil, fmt.Errorf("find taxon: %w", err)
	}
	return taxon, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Taxon, error) {
	query := `
		SELECT id, name, rank, parent_id, org_id
		FROM taxon
		WHERE org_id = $1
	`
	args := []any{filter.OrgID}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if filter.After != nil {
		args = append(args, filter.After.Name, filter.After.ID)
		query += fmt.Sprintf(" AND (name, id) > ($%d, $%d)", len(args)-1, len(args))
	}
	query += " ORDER BY name, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list taxa: %w", err)
	}
	defer rows.Close()

	var out []*Taxon
	for rows.Next() {
		taxon, err := scanTaxon(rows)
		if err != nil {
			return nil, fmt.Errorf("list taxa: %w", err)
		}
		out = append(out, taxon)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, q audit.Querier, taxon *Taxon) error {
	result, err := s.querier(q).ExecContext(ctx, `
		UPDATE taxon
		SET name = $3, rank = $4, parent_id = $5
		WHERE org_id = $1 AND id = $2
	`, taxon.OrgID, taxon.ID, taxon.Name, taxon.Rank, nullInt64(taxon.ParentID))
	if err != nil {
		return fmt.Errorf("update taxon: %w", err)
	}
	return requireRow(result, "taxon not found")
}

func (s *PostgresStore) Delete(ctx context.Context, q audit.Querier, orgID, id int64) error {
	result, err := s.querier(q).ExecContext(ctx, `
		DELETE FROM taxon WHERE org_id = $1 AND id = $2
	`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete taxon: %w", err)
	}
	return requireRow(result, "taxon not found")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaxon(row rowScanner) (*Taxon, error) {
	var (
		taxon  Taxon
		parent sql.NullInt64
	)
	if err := row.Scan(&taxon.ID, &taxon.Name, &taxon.Rank, &parent, &taxon.OrgID); err != nil {
		return nil, err
	}
	if parent.Valid {
		taxon.ParentID = &parent.Int64
	}
	return &taxon, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
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
