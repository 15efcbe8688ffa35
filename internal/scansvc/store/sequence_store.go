package store

import (
	"context"
	"errors"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/jackc/pgx/v5"
)

// The row lock taken by the upsert serializes concurrent callers. A new UTC year restarts the counter.
const nextControlNumberSQL = `
INSERT INTO scan_config (id, consecutive, year)
VALUES (1, 1, $1)
ON CONFLICT (id) DO UPDATE
SET consecutive = CASE WHEN scan_config.year = EXCLUDED.year THEN scan_config.consecutive + 1 ELSE 1 END,
    year = EXCLUDED.year
RETURNING consecutive, year
`

const nextPalletCounterSQL = `
UPDATE scans
SET pallet_counter = pallet_counter + 1
WHERE id = $1
RETURNING pallet_counter
`

type SequenceStore struct {
	db Pool
}

func NewSequenceStore(db Pool) *SequenceStore {
	return &SequenceStore{db: db}
}

func (s *SequenceStore) NextScanControlNumber(ctx context.Context, now time.Time) (string, error) {
	return nextScanControlNumber(ctx, s.db, now)
}

func (s *SequenceStore) NextPalletNumber(ctx context.Context, scanID int64) (string, error) {
	return nextPalletNumber(ctx, s.db, scanID)
}

func nextScanControlNumber(ctx context.Context, q DBTX, now time.Time) (string, error) {
	var counter int64
	var year int
	err := q.QueryRow(ctx, nextControlNumberSQL, scanning.CounterYear(now)).Scan(&counter, &year)
	if err != nil {
		return "", mapError("allocate control number", err)
	}
	return scanning.FormatControlNumber(counter, year)
}

func nextPalletNumber(ctx context.Context, q DBTX, scanID int64) (string, error) {
	var counter int64
	err := q.QueryRow(ctx, nextPalletCounterSQL, scanID).Scan(&counter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", scanning.NotFound("scan", scanID)
		}
		return "", mapError("allocate pallet number", err)
	}
	return scanning.FormatPalletNumber(counter)
}
