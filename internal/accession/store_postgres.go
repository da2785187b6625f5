package accession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// PostgresStore persists accessions and items in PostgreSQL.
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

func (s *PostgresStore) Create(ctx context.Context, q audit.Querier, accession *Accession) error {
	row := s.querier(q).QueryRowContext(ctx, `
		INSERT INTO accession (code, taxon_id, org_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, accession.Code, accession.TaxonID, accession.OrgID)
	if err := row.Scan(&accession.ID); err != nil {
		return fmt.Errorf("insert accession: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByID(ctx context.Context, orgID, id int64) (*Accession, error) {
	var accession Accession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, taxon_id, org_id
		FROM accession
		WHERE org_id = $1 AND id = $2
	`, orgID, id).Scan(&accession.ID, &accession.Code, &accession.TaxonID, &accession.OrgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "accession not found")
		}
		return nil, fmt.Errorf("find accession: %w", err)
	}
	return &accession, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Accession, error) {
	query := `
		SELECT id, code, taxon_id, org_id
		FROM accession
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
		return nil, fmt.Errorf("list accessions: %w", err)
	}
	defer rows.Close()

	var out []*Accession
	for rows.Next() {
		var accession Accession
		if err := rows.Scan(&accession.ID, &accession.Code, &accession.TaxonID, &accession.OrgID); err != nil {
			return nil, fmt.Errorf("list accessions: %w", err)
		}
		out = append(out, &accession)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, q audit.Querier, accession *Accession) error {
	result, err := s.querier(q).ExecContext(ctx, `
		UPDATE accession
		SET code = $3, taxon_id = $4
		WHERE org_id = $1 AND id = $2
	`, accession.OrgID, accession.ID, accession.Code, accession.TaxonID)
	if err != nil {
		return fmt.Errorf("update accession: %w", err)
	}
	return requireRow(result, "accession not found")
}

func (s *PostgresStore) Delete(ctx context.Context, q audit.Querier, orgID, id int64) error {
	result, err := s.querier(q).ExecContext(ctx, `
		DELETE FROM accession WHERE org_id = $1 AND id = $2
	`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete accession: %w", err)
	}
	return requireRow(result, "accession not found")
}

func (s *PostgresStore) CreateItem(ctx context.Context, q audit.Querier, item *Item) error {
	row := s.querier(q).QueryRowContext(ctx, `
		INSERT INTO accession_item (code, item_type, accession_id, location_id, org_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, item.Code, item.ItemType, item.AccessionID, item.LocationID, item.OrgID)
	if err := row.Scan(&item.ID); err != nil {
		return fmt.Errorf("insert accession item: %w", err)
	}
	return nil
}

func (s *PostgresStore) ItemsOf(ctx context.Context, orgID, accessionID int64) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, item_type, accession_id, location_id, org_id
		FROM accession_item
		WHERE org_id = $1 AND accession_id = $2
		ORDER BY id
	`, orgID, accessionID)
	if err != nil {
		return nil, fmt.Errorf("list accession items: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Code, &item.ItemType, &item.AccessionID, &item.LocationID, &item.OrgID); err != nil {
			return nil, fmt.Errorf("list accession items: %w", err)
		}
		out = append(out, &item)
	}
	return out, rows.Err()
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
