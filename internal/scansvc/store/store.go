package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a DBTX that can open transactions.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Store bundles the stores that share one pool.
type Store struct {
	Sequences *SequenceStore
	Scans     *ScanStore
	Pallets   *PalletStore
	Skus      *SkuStore
	Users     *UserStore
}

func New(db Pool) *Store {
	return &Store{
		Sequences: NewSequenceStore(db),
		Scans:     NewScanStore(db),
		Pallets:   NewPalletStore(db),
		Skus:      NewSkuStore(db),
		Users:     NewUserStore(db),
	}
}
