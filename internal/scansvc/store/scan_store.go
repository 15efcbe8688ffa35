package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/jackc/pgx/v5"
)

const scanColumns = `id, control_number, created_at, finished, finished_at, pallet_counter`

type ScanStore struct {
	db Pool
}

func NewScanStore(db Pool) *ScanStore {
	return &ScanStore{db: db}
}

func scanScan(row pgx.Row) (*models.Scan, error) {
	s := &models.Scan{}
	var finishedAt sql.NullTime
	err := row.Scan(
		&s.ID,
		&s.ControlNumber,
		&s.CreatedAt,
		&s.Finished,
		&finishedAt,
		&s.PalletCounter,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		s.FinishedAt = &t
	}
	return s, nil
}

// CreateScan allocates the control number and inserts the open scan in one transaction.
func (s *ScanStore) CreateScan(ctx context.Context, now time.Time) (*models.Scan, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, mapError("begin start scan", err)
	}
	defer tx.Rollback(ctx)

	controlNumber, err := nextScanControlNumber(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	scan := scanning.NewScan(controlNumber, now)
	err = tx.QueryRow(ctx, `
		INSERT INTO scans (control_number, created_at, finished, finished_at, pallet_counter)
		VALUES ($1, $2, false, NULL, 0)
		RETURNING id
	`, scan.ControlNumber, scan.CreatedAt).Scan(&scan.ID)
	if err != nil {
		return nil, mapError("insert scan", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapError("commit start scan", err)
	}
	return &scan, nil
}

func (s *ScanStore) GetScan(ctx context.Context, id int64) (*models.Scan, error) {
	scan, err := scanScan(s.db.QueryRow(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scanning.NotFound("scan", id)
		}
		return nil, mapError("get scan", err)
	}
	return scan, nil
}

// ListScans returns the scans matching f, newest first. Dates compare on the UTC calendar day.
func (s *ScanStore) ListScans(ctx context.Context, f scanning.ScanFilter) ([]models.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE 1=1`
	var args []any

	if f.Finished != nil {
		args = append(args, *f.Finished)
		query += fmt.Sprintf(" AND finished = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND (created_at AT TIME ZONE 'UTC')::date >= $%d::date", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND (created_at AT TIME ZONE 'UTC')::date <= $%d::date", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list scans", err)
	}
	defer rows.Close()

	scans := []models.Scan{}
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, mapError("list scans", err)
		}
		scans = append(scans, *scan)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list scans", err)
	}
	return scans, nil
}

// TransitionScan locks the scan row, applies fn and writes the new state back.
// It returns the updated scan and the state it left.
func (s *ScanStore) TransitionScan(ctx context.Context, id int64, fn scanning.Transition, now time.Time) (*models.Scan, scanning.State, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, "", mapError("begin scan transition", err)
	}
	defer tx.Rollback(ctx)

	scan, err := scanScan(tx.QueryRow(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", scanning.NotFound("scan", id)
		}
		return nil, "", mapError("lock scan", err)
	}

	prev, err := fn(scan, now)
	if err != nil {
		return nil, "", err
	}

	_, err = tx.Exec(ctx, `UPDATE scans SET finished = $2, finished_at = $3 WHERE id = $1`,
		scan.ID, scan.Finished, scan.FinishedAt)
	if err != nil {
		return nil, "", mapError("update scan state", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", mapError("commit scan transition", err)
	}
	return scan, prev, nil
}

// DeleteScan removes the scan with its pallets and SKU lines.
func (s *ScanStore) DeleteScan(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapError("begin delete scan", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM scans WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scanning.NotFound("scan", id)
		}
		return mapError("lock scan", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sku_lines WHERE pallet_id IN (SELECT id FROM pallets WHERE scan_id = $1)`, id); err != nil {
		return mapError("delete scan sku lines", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM pallets WHERE scan_id = $1`, id); err != nil {
		return mapError("delete scan pallets", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM scans WHERE id = $1`, id); err != nil {
		return mapError("delete scan", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError("commit delete scan", err)
	}
	return nil
}

// LoadSnapshot reads the scan, its pallets and their lines in one repeatable read transaction,
// so the figures derived from it agree with each other.
func (s *ScanStore) LoadSnapshot(ctx context.Context, scanID int64) (scanning.Snapshot, error) {
	var snap scanning.Snapshot

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return snap, mapError("begin snapshot", err)
	}
	defer tx.Rollback(ctx)

	scan, err := scanScan(tx.QueryRow(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = $1`, scanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, scanning.NotFound("scan", scanID)
		}
		return snap, mapError("snapshot scan", err)
	}
	snap.Scan = *scan

	if snap.Pallets, err = queryPallets(ctx, tx, `
		SELECT `+palletColumns+` FROM pallets WHERE scan_id = $1 ORDER BY id
	`, scanID); err != nil {
		return snap, mapError("snapshot pallets", err)
	}

	if snap.Lines, err = querySkuLines(ctx, tx, `
		SELECT l.id, l.pallet_id, l.code, l.quantity, l.scan_count, l.created_at
		FROM sku_lines l
		JOIN pallets p ON p.id = l.pallet_id
		WHERE p.scan_id = $1
		ORDER BY l.id
	`, scanID); err != nil {
		return snap, mapError("snapshot sku lines", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return snap, mapError("commit snapshot", err)
	}
	return snap, nil
}
