package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists vehicle profiles in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO vehicle_profiles (id, token_id, vin, owner_wallet, identity_id, make, model, year, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.pool.Exec(ctx, query,
		profile.ID.String(),
		int64(profile.TokenID),
		profile.VIN,
		profile.OwnerWallet,
		profile.IdentityID.String(),
		profile.Make,
		profile.Model,
		profile.Year,
		profile.Name,
		profile.Description,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Which constraint fired decides the caller-facing conflict.
			if strings.Contains(pgErr.ConstraintName, "vin") {
				return ErrDuplicateVIN
			}
			return ErrDuplicateToken
		}
		return fmt.Errorf("insert vehicle profile: %w", err)
	}
	return nil
}

const profileColumns = `id, token_id, vin, owner_wallet, identity_id, COALESCE(make, ''), COALESCE(model, ''), COALESCE(year, 0), COALESCE(name, ''), COALESCE(description, ''), created_at, updated_at`

func (s *PostgresStore) FindByTokenID(ctx context.Context, tokenID id.TokenID) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM vehicle_profiles WHERE token_id = $1`
	row := s.pool.QueryRow(ctx, query, int64(tokenID))
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select vehicle profile: %w", err)
	}
	return profile, nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM vehicle_profiles WHERE identity_id = $1 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query, identityID.String())
	if err != nil {
		return nil, fmt.Errorf("select vehicle profiles: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle profile: %w", err)
		}
		out = append(out, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select vehicle profiles: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateOwner(ctx context.Context, tokenID id.TokenID, ownerWallet string, at time.Time) error {
	query := `UPDATE vehicle_profiles SET owner_wallet = $2, updated_at = $3 WHERE token_id = $1`
	tag, err := s.pool.Exec(ctx, query, int64(tokenID), ownerWallet, at)
	if err != nil {
		return fmt.Errorf("update vehicle owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		profile    Profile
		rawID      string
		rawToken   int64
		rawOwnerID string
	)
	err := row.Scan(
		&rawID,
		&rawToken,
		&profile.VIN,
		&profile.OwnerWallet,
		&rawOwnerID,
		&profile.Make,
		&profile.Model,
		&profile.Year,
		&profile.Name,
		&profile.Description,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsedID, err := id.ParseProfileID(rawID)
	if err != nil {
		return nil, err
	}
	parsedIdentity, err := id.ParseIdentityID(rawOwnerID)
	if err != nil {
		return nil, err
	}
	profile.ID = parsedID
	profile.TokenID = id.TokenID(rawToken)
	profile.IdentityID = parsedIdentity
	return &profile, nil
}
