package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	dErrors "verdant/pkg/domain-errors"
)

// PostgresStore persists profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, profile *Profile) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO profile (user_id, email, phone_number, picture, name, given_name, family_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING id
	`, profile.UserID, profile.Email, profile.PhoneNumber, profile.Picture,
		profile.Name, profile.GivenName, profile.FamilyName)
	if err := row.Scan(&profile.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dErrors.New(dErrors.CodeConflict, "profile already exists")
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByUserID(ctx context.Context, userID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, selectProfile+" WHERE user_id = $1", userID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}

// ByUserIDs fetches profiles in one round trip. Missing users are simply
// absent from the result.
func (s *PostgresStore) ByUserIDs(ctx context.Context, userIDs []string) (map[string]*Profile, error) {
	if len(userIDs) == 0 {
		return map[string]*Profile{}, nil
	}
	rows, err := s.db.QueryContext(ctx, selectProfile+" WHERE user_id = ANY($1)", pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*Profile, len(userIDs))
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out[profile.UserID] = profile
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, profile *Profile) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profile
		SET email = $2, phone_number = $3, picture = $4, name = $5,
		    given_name = $6, family_name = $7
		WHERE user_id = $1
	`, profile.UserID, profile.Email, profile.PhoneNumber, profile.Picture,
		profile.Name, profile.GivenName, profile.FamilyName)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	return nil
}

const selectProfile = `
	SELECT id, user_id, email, phone_number, picture, name, given_name, family_name
	FROM profile
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Email, &p.PhoneNumber, &p.Picture,
		&p.Name, &p.GivenName, &p.FamilyName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
