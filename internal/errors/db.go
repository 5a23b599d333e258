package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps database errors to AppError instances:
//   - pgx.ErrNoRows → NotFound
//   - unique violations → Conflict
//   - check and NOT NULL violations → Validation
//   - context timeouts/cancellations → Timeout/Canceled
//
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrCodeTimeout, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(ErrCodeCanceled, "request was canceled", err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(ErrCodeNotFound, "resource not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return Wrap(ErrCodeConflict, "record already exists", pgErr)
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return Wrap(ErrCodeValidation, "invalid value", pgErr)
	case pgerrcode.ForeignKeyViolation:
		return Wrap(ErrCodeConflict, "record is referenced by other data", pgErr)
	default:
		return Wrap(ErrCodeInternal, "database error", pgErr)
	}
}
