// Package storage owns the PostgreSQL connection pool and schema for the
// reconciliation core. The unique constraints declared here are the only
// concurrency-safety mechanism the core relies on; there are no in-process
// locks guarding writes.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate applies the schema. Statements are idempotent so startup can run
// them unconditionally.
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateIdentities,
		migrationCreateVehicleProfiles,
		migrationCreateMintAudit,
		migrationCreateOutbox,
	}
	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

const migrationCreateIdentities = `
CREATE TABLE IF NOT EXISTS identities (
    id UUID PRIMARY KEY,
    wallet_address TEXT NOT NULL,
    normalized_wallet TEXT NOT NULL UNIQUE,
    username TEXT,
    display_name TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    last_login TIMESTAMPTZ
)`

const migrationCreateVehicleProfiles = `
CREATE TABLE IF NOT EXISTS vehicle_profiles (
    id UUID PRIMARY KEY,
    token_id BIGINT NOT NULL UNIQUE,
    vin TEXT NOT NULL UNIQUE,
    owner_wallet TEXT NOT NULL,
    identity_id UUID NOT NULL REFERENCES identities(id),
    make TEXT,
    model TEXT,
    year INT,
    name TEXT,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

const migrationCreateMintAudit = `
CREATE TABLE IF NOT EXISTS mint_audit (
    id UUID PRIMARY KEY,
    token_id BIGINT NOT NULL,
    action TEXT NOT NULL,
    detail TEXT,
    actor_wallet TEXT,
    created_at TIMESTAMPTZ NOT NULL
)`

const migrationCreateOutbox = `
CREATE TABLE IF NOT EXISTS outbox (
    id UUID PRIMARY KEY,
    aggregate_type TEXT NOT NULL,
    aggregate_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    payload JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    published_at TIMESTAMPTZ
)`
