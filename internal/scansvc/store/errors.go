package store

import (
	"errors"

	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	PgErrUniqueViolation     = "23505" // unique_violation
	PgErrForeignKeyViolation = "23503" // foreign_key_violation
	PgErrCheckViolation      = "23514" // check_violation
	PgErrNumericOutOfRange   = "22003" // numeric_value_out_of_range
)

// mapError turns a pgx failure into the scanning error taxonomy. Errors that are already
// classified pass through. Callers handle pgx.ErrNoRows themselves since only they know the entity.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *scanning.Error
	if errors.As(err, &se) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrUniqueViolation:
			return &scanning.Error{Kind: scanning.KindConflict, Reason: op + ": duplicate " + pgErr.ConstraintName, Err: err}
		case PgErrForeignKeyViolation:
			return &scanning.Error{Kind: scanning.KindNotFound, Reason: op + ": referenced row does not exist", Err: err}
		case PgErrCheckViolation, PgErrNumericOutOfRange:
			return &scanning.Error{Kind: scanning.KindConflict, Reason: op + ": value out of range", Err: err}
		}
	}
	return scanning.Infrastructure(op, err)
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
