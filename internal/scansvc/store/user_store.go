package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/jackc/pgx/v5"
)

type UserStore struct {
	db Pool
}

func NewUserStore(db Pool) *UserStore {
	return &UserStore{db: db}
}

// CreateUserIfMissing inserts the account unless the user name is taken.
// It reports whether a row was inserted.
func (r *UserStore) CreateUserIfMissing(ctx context.Context, user models.User) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO user_accounts (full_name, user_name, password_hash, role)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_name) DO NOTHING
    `, user.FullName, user.UserName, user.PasswordHash, user.Role)
	if err != nil {
		return false, mapError("create user", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByUserName returns nil, nil when no account has that name.
func (r *UserStore) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, full_name, user_name, password_hash, role, created_at
        FROM user_accounts
        WHERE user_name = $1
    `, userName)

	u := &models.User{}
	var fullName sql.NullString
	err := row.Scan(
		&u.ID,
		&fullName,
		&u.UserName,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, scanning.Infrastructure("get user", err)
	}
	u.FullName = fullName.String

	return u, nil
}
