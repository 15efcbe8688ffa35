package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/jackc/pgx/v5"
)

const palletColumns = `id, scan_id, pallet_number, created_at`

type PalletStore struct {
	db Pool
}

func NewPalletStore(db Pool) *PalletStore {
	return &PalletStore{db: db}
}

func scanPallet(row pgx.Row) (*models.Pallet, error) {
	p := &models.Pallet{}
	var number sql.NullString
	if err := row.Scan(&p.ID, &p.ScanID, &number, &p.CreatedAt); err != nil {
		return nil, err
	}
	if number.Valid {
		n := number.String
		p.PalletNumber = &n
	}
	return p, nil
}

func queryPallets(ctx context.Context, q DBTX, query string, args ...any) ([]models.Pallet, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pallets := []models.Pallet{}
	for rows.Next() {
		p, err := scanPallet(rows)
		if err != nil {
			return nil, err
		}
		pallets = append(pallets, *p)
	}
	return pallets, rows.Err()
}

// CreatePallet inserts a pallet into scanID. A nil or blank number is replaced by the next
// P-number of the scan, allocated in the same transaction.
func (s *PalletStore) CreatePallet(ctx context.Context, scanID int64, number *string, now time.Time) (*models.Pallet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, mapError("begin create pallet", err)
	}
	defer tx.Rollback(ctx)

	var palletNumber string
	if number != nil {
		palletNumber = strings.TrimSpace(*number)
	}
	if palletNumber == "" {
		if palletNumber, err = nextPalletNumber(ctx, tx, scanID); err != nil {
			return nil, err
		}
	}

	p := &models.Pallet{ScanID: scanID, PalletNumber: &palletNumber, CreatedAt: now}
	err = tx.QueryRow(ctx, `
		INSERT INTO pallets (scan_id, pallet_number, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, scanID, palletNumber, now).Scan(&p.ID)
	if err != nil {
		if isPgCode(err, PgErrForeignKeyViolation) {
			return nil, scanning.NotFound("scan", scanID)
		}
		return nil, mapError("insert pallet", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapError("commit create pallet", err)
	}
	return p, nil
}

func (s *PalletStore) GetPallet(ctx context.Context, id int64) (*models.Pallet, error) {
	p, err := scanPallet(s.db.QueryRow(ctx, `SELECT `+palletColumns+` FROM pallets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scanning.NotFound("pallet", id)
		}
		return nil, mapError("get pallet", err)
	}
	return p, nil
}

// RenamePallet sets the pallet number. The owning scan never changes.
func (s *PalletStore) RenamePallet(ctx context.Context, id int64, number string) (*models.Pallet, error) {
	p, err := scanPallet(s.db.QueryRow(ctx, `
		UPDATE pallets SET pallet_number = $2 WHERE id = $1
		RETURNING `+palletColumns, id, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scanning.NotFound("pallet", id)
		}
		return nil, mapError("rename pallet", err)
	}
	return p, nil
}

// DeletePallet removes the pallet and its SKU lines and returns the deleted pallet.
func (s *PalletStore) DeletePallet(ctx context.Context, id int64) (*models.Pallet, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, mapError("begin delete pallet", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sku_lines WHERE pallet_id = $1`, id); err != nil {
		return nil, mapError("delete pallet sku lines", err)
	}

	p, err := scanPallet(tx.QueryRow(ctx, `DELETE FROM pallets WHERE id = $1 RETURNING `+palletColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scanning.NotFound("pallet", id)
		}
		return nil, mapError("delete pallet", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapError("commit delete pallet", err)
	}
	return p, nil
}
