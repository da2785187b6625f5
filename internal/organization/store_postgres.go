package organization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"verdant/internal/audit"
	dErrors "verdant/pkg/domain-errors"
)

// PostgresStore persists organizations and memberships in PostgreSQL.
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

func (s *PostgresStore) Create(ctx context.Context, q audit.Querier, org *Organization, ownerID string) error {
	qr := s.querier(q)
	query := `
		INSERT INTO organization (name, short_name, address, city, state, country, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, date_created
	`
	row := qr.QueryRowContext(ctx, query,
		org.Name, org.ShortName, org.Address, org.City, org.State, org.Country, org.PostalCode)
	if err := row.Scan(&org.ID, &org.DateCreated); err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}

	_, err := qr.ExecContext(ctx, `
		INSERT INTO organization_user (organization_id, user_id, role)
		VALUES ($1, $2, $3)
	`, org.ID, ownerID, RoleOwner)
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByID(ctx context.Context, id int64) (*Organization, error) {
	row := s.db.QueryRowContext(ctx, selectOrganization+" WHERE id = $1", id)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return org, nil
}

func (s *PostgresStore) ListForUser(ctx context.Context, userID string) ([]*Organization, error) {
	query := selectOrganization + `
		JOIN organization_user ou ON ou.organization_id = organization.id
		WHERE ou.user_id = $1
		ORDER BY organization.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var out []*Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("list organizations: %w", err)
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, q audit.Querier, org *Organization) error {
	result, err := s.querier(q).ExecContext(ctx, `
		UPDATE organization
		SET name = $2, short_name = $3, address = $4, city = $5, state = $6,
		    country = $7, postal_code = $8
		WHERE id = $1
	`, org.ID, org.Name, org.ShortName, org.Address, org.City, org.State, org.Country, org.PostalCode)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	return requireRow(result, "organization not found")
}

func (s *PostgresStore) Delete(ctx context.Context, q audit.Querier, id int64) error {
	result, err := s.querier(q).ExecContext(ctx, `DELETE FROM organization WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return requireRow(result, "organization not found")
}

func (s *PostgresStore) RoleOf(ctx context.Context, orgID int64, userID string) (RoleType, error) {
	var role RoleType
	err := s.db.QueryRowContext(ctx, `
		SELECT role FROM organization_user
		WHERE organization_id = $1 AND user_id = $2
	`, orgID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find membership: %w", err)
	}
	return role, nil
}

func (s *PostgresStore) Members(ctx context.Context, orgID int64) ([]*Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, organization_id, role, created_at
		FROM organization_user
		WHERE organization_id = $1
		ORDER BY user_id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.OrganizationID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AssignRole(ctx context.Context, q audit.Querier, orgID int64, userID string, role RoleType) error {
	_, err := s.querier(q).ExecContext(ctx, `
		INSERT INTO organization_user (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, orgID, userID, role)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveMember(ctx context.Context, q audit.Querier, orgID int64, userID string) error {
	_, err := s.querier(q).ExecContext(ctx, `
		DELETE FROM organization_user
		WHERE organization_id = $1 AND user_id = $2
	`, orgID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

const selectOrganization = `
	SELECT organization.id, organization.name, organization.short_name,
	       organization.address, organization.city, organization.state,
	       organization.country, organization.postal_code,
	       organization.date_approved, organization.date_created,
	       organization.date_suspended
	FROM organization
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*Organization, error) {
	var (
		org       Organization
		shortName sql.NullString
		address   sql.NullString
		city      sql.NullString
		state     sql.NullString
		country   sql.NullString
		postal    sql.NullString
		approved  sql.NullTime
		suspended sql.NullTime
	)
	err := row.Scan(&org.ID, &org.Name, &shortName, &address, &city, &state,
		&country, &postal, &approved, &org.DateCreated, &suspended)
	if err != nil {
		return nil, err
	}
	org.ShortName = shortName.String
	org.Address = address.String
	org.City = city.String
	org.State = state.String
	org.Country = country.String
	org.PostalCode = postal.String
	if approved.Valid {
		org.DateApproved = &approved.Time
	}
	if suspended.Valid {
		org.DateSuspended = &suspended.Time
	}
	return &org, nil
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
