package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists identities in PostgreSQL. The unique constraint on
// normalized_wallet arbitrates concurrent creation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, identity *Identity) error {
	query := `
		INSERT INTO identities (id, wallet_address, normalized_wallet, username, display_name, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		identity.ID.String(),
		identity.WalletAddress,
		identity.NormalizedWallet,
		nullable(identity.Username),
		nullable(identity.DisplayName),
		identity.CreatedAt,
		identity.UpdatedAt,
		identity.LastLogin,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: identity for wallet %s", sentinel.ErrConflict, identity.NormalizedWallet)
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByWallet(ctx context.Context, normalizedWallet string) (*Identity, error) {
	return s.find(ctx, `WHERE normalized_wallet = $1`, normalizedWallet)
}

func (s *PostgresStore) FindByID(ctx context.Context, identityID id.IdentityID) (*Identity, error) {
	return s.find(ctx, `WHERE id = $1`, identityID.String())
}

func (s *PostgresStore) find(ctx context.Context, where string, arg any) (*Identity, error) {
	query := `
		SELECT id, wallet_address, normalized_wallet, COALESCE(username, ''), COALESCE(display_name, ''), created_at, updated_at, last_login
		FROM identities ` + where

	var (
		found Identity
		rawID string
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&rawID,
		&found.WalletAddress,
		&found.NormalizedWallet,
		&found.Username,
		&found.DisplayName,
		&found.CreatedAt,
		&found.UpdatedAt,
		&found.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select identity: %w", err)
	}
	parsed, err := id.ParseIdentityID(rawID)
	if err != nil {
		return nil, fmt.Errorf("select identity: %w", err)
	}
	found.ID = parsed
	return &found, nil
}

func (s *PostgresStore) TouchLogin(ctx context.Context, identityID id.IdentityID, at time.Time) error {
	query := `UPDATE identities SET last_login = $2, updated_at = $2 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, identityID.String(), at)
	if err != nil {
		return fmt.Errorf("update last_login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
