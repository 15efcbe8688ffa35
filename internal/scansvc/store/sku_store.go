package store

import (
	"context"
	"errors"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/jackc/pgx/v5"
)

const skuLineColumns = `id, pallet_id, code, quantity, scan_count, created_at`

type SkuStore struct {
	db Pool
}

func NewSkuStore(db Pool) *SkuStore {
	return &SkuStore{db: db}
}

func scanSkuLine(row pgx.Row) (*models.SkuLine, error) {
	l := &models.SkuLine{}
	err := row.Scan(
		&l.ID,
		&l.PalletID,
		&l.Code,
		&l.Quantity,
		&l.ScanCount,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func querySkuLines(ctx context.Context, q DBTX, query string, args ...any) ([]models.SkuLine, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.SkuLine{}
	for rows.Next() {
		l, err := scanSkuLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

// ApplyScan records one scan event on a pallet. The pallet row is locked for the whole
// read-merge-write, so concurrent scans of the same pallet apply one after the other.
// It returns the merge result and the id of the scan owning the pallet.
func (s *SkuStore) ApplyScan(ctx context.Context, palletID int64, entry scanning.ScanEntry, now time.Time) (scanning.MergeResult, int64, error) {
	var res scanning.MergeResult

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return res, 0, mapError("begin record scan", err)
	}
	defer tx.Rollback(ctx)

	var scanID int64
	err = tx.QueryRow(ctx, `SELECT scan_id FROM pallets WHERE id = $1 FOR UPDATE`, palletID).Scan(&scanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return res, 0, scanning.NotFound("pallet", palletID)
		}
		return res, 0, mapError("lock pallet", err)
	}

	existing, err := querySkuLines(ctx, tx, `
		SELECT `+skuLineColumns+`
		FROM sku_lines
		WHERE pallet_id = $1 AND lower(code) = lower($2)
	`, palletID, entry.Code)
	if err != nil {
		return res, 0, mapError("load sku lines", err)
	}

	res, err = scanning.Merge(palletID, entry, existing, now)
	if err != nil {
		return res, 0, err
	}

	switch res.Outcome {
	case scanning.Created:
		err = tx.QueryRow(ctx, `
			INSERT INTO sku_lines (pallet_id, code, quantity, scan_count, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, res.Line.PalletID, res.Line.Code, res.Line.Quantity, res.Line.ScanCount, res.Line.CreatedAt).Scan(&res.Line.ID)
		if err != nil {
			return res, 0, mapError("insert sku line", err)
		}
	case scanning.Merged:
		tag, err := tx.Exec(ctx, `UPDATE sku_lines SET quantity = $2, scan_count = $3 WHERE id = $1`,
			res.Line.ID, res.Line.Quantity, res.Line.ScanCount)
		if err != nil {
			return res, 0, mapError("update sku line", err)
		}
		if tag.RowsAffected() != 1 {
			return res, 0, scanning.Conflict("sku line %d was removed while the scan was recorded, scan again", res.Line.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return res, 0, mapError("commit record scan", err)
	}
	return res, scanID, nil
}

func (s *SkuStore) GetSkuLine(ctx context.Context, id int64) (*models.SkuLine, error) {
	l, err := scanSkuLine(s.db.QueryRow(ctx, `SELECT `+skuLineColumns+` FROM sku_lines WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scanning.NotFound("sku line", id)
		}
		return nil, mapError("get sku line", err)
	}
	return l, nil
}

func (s *SkuStore) ListByPallet(ctx context.Context, palletID int64) ([]models.SkuLine, error) {
	lines, err := querySkuLines(ctx, s.db, `
		SELECT `+skuLineColumns+` FROM sku_lines WHERE pallet_id = $1 ORDER BY id
	`, palletID)
	if err != nil {
		return nil, mapError("list sku lines", err)
	}
	return lines, nil
}

// DeleteSkuLine removes one line and returns it with the id of its scan. It takes the same
// pallet lock as ApplyScan so a delete never lands between a merge's read and its write.
func (s *SkuStore) DeleteSkuLine(ctx context.Context, id int64) (*models.SkuLine, int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, mapError("begin delete sku line", err)
	}
	defer tx.Rollback(ctx)

	var palletID int64
	err = tx.QueryRow(ctx, `
		SELECT id FROM pallets
		WHERE id = (SELECT pallet_id FROM sku_lines WHERE id = $1)
		FOR UPDATE
	`, id).Scan(&palletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, scanning.NotFound("sku line", id)
		}
		return nil, 0, mapError("lock pallet", err)
	}

	l := &models.SkuLine{}
	var scanID int64
	err = tx.QueryRow(ctx, `
		DELETE FROM sku_lines l
		USING pallets p
		WHERE l.id = $1 AND p.id = l.pallet_id
		RETURNING l.id, l.pallet_id, l.code, l.quantity, l.scan_count, l.created_at, p.scan_id
	`, id).Scan(&l.ID, &l.PalletID, &l.Code, &l.Quantity, &l.ScanCount, &l.CreatedAt, &scanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, scanning.NotFound("sku line", id)
		}
		return nil, 0, mapError("delete sku line", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, mapError("commit delete sku line", err)
	}
	return l, scanID, nil
}
