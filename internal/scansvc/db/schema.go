package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_accounts (
		id            BIGSERIAL PRIMARY KEY,
		full_name     TEXT,
		user_name     TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('Administrator', 'User')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS scan_config (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		consecutive BIGINT  NOT NULL,
		year        INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scans (
		id             BIGSERIAL PRIMARY KEY,
		control_number TEXT        NOT NULL UNIQUE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		finished       BOOLEAN     NOT NULL DEFAULT false,
		finished_at    TIMESTAMPTZ,
		pallet_counter BIGINT      NOT NULL DEFAULT 0,
		CONSTRAINT scans_finished_state CHECK (finished = (finished_at IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS scans_created_at_idx ON scans (created_at)`,
	`CREATE TABLE IF NOT EXISTS pallets (
		id            BIGSERIAL PRIMARY KEY,
		scan_id       BIGINT      NOT NULL REFERENCES scans (id) ON DELETE CASCADE,
		pallet_number TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS pallets_scan_id_idx ON pallets (scan_id)`,
	`CREATE TABLE IF NOT EXISTS sku_lines (
		id         BIGSERIAL PRIMARY KEY,
		pallet_id  BIGINT      NOT NULL REFERENCES pallets (id) ON DELETE CASCADE,
		code       TEXT        NOT NULL CHECK (length(code) > 0),
		quantity   INTEGER     NOT NULL CHECK (quantity >= 1),
		scan_count INTEGER     NOT NULL CHECK (scan_count >= 1),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sku_lines_pallet_code_idx ON sku_lines (pallet_id, lower(code))`,
	`INSERT INTO scan_config (id, consecutive, year)
	 VALUES (1, 0, EXTRACT(YEAR FROM now() AT TIME ZONE 'UTC')::int)
	 ON CONFLICT (id) DO NOTHING`,
}

// EnsureSchema creates the tables the scan service needs. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db execer) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
