package apperr

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	PgErrLockNotAvailable  = "55P03"
	PgErrDeadlockDetected  = "40P01"
	PgErrSerializationFail = "40001"
	PgErrUniqueViolation   = "23505"
	PgErrUndefinedFunction = "42883"

	// Custom SQLSTATEs raised by the increment_packing function.
	PgErrFulfillmentNotFound = "FF404"
	PgErrFulfillmentConflict = "FF409"
)

// FromPG classifies a database error into the service taxonomy. Errors that
// already carry a Kind pass through unchanged.
func FromPG(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTransient, "database operation timed out", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrLockNotAvailable, PgErrDeadlockDetected, PgErrSerializationFail:
			return Wrap(KindTransient, "row lock contention, retry", err)
		case PgErrUniqueViolation:
			return Wrap(KindStateConflict, "record already exists", err)
		case PgErrFulfillmentNotFound:
			return &Error{Kind: KindNotFound, Message: pgErr.Message, Err: err}
		case PgErrFulfillmentConflict:
			return &Error{Kind: KindStateConflict, Message: pgErr.Message, Err: err}
		}
	}

	return err
}

// IsUndefinedFunction reports a 42883, meaning a stored function is absent
// from this deployment. The allocator uses it to fall through to the next
// backend.
func IsUndefinedFunction(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == PgErrUndefinedFunction
}
