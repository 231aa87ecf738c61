package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates the input was rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrAmbiguousReference indicates a legacy back-reference matched more than one delivery.
	ErrAmbiguousReference = errors.New("ambiguous delivery reference")
)

// MapDBError translates driver-level failures into shared sentinels.
// Unique violations (SQLSTATE 23505) become ErrDuplicate so callers can
// retry with adjusted input.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
