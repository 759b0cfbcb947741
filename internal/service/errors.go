package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Every failure returned by the services wraps exactly one of these kinds.
var (
	ErrInvalidRange     = errors.New("invalid date range")
	ErrConflict         = errors.New("dates conflict with an existing booking")
	ErrForbidden        = errors.New("not permitted")
	ErrInvalidState     = errors.New("action not allowed in current state")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrValidation       = errors.New("invalid input")
)

const pgExclusionViolation = "23P01"

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidRange, "invalid_range"},
	{ErrConflict, "conflict"},
	{ErrForbidden, "authorization"},
	{ErrInvalidState, "invalid_state"},
	{ErrNotFound, "not_found"},
	{ErrDuplicateRequest, "duplicate_request"},
	{ErrValidation, "validation"},
}

// KindOf returns the stable name of err's kind, or "internal" for anything
// outside the taxonomy.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

// translateWrite maps store-level constraint violations onto the taxonomy.
func translateWrite(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateRequest, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	}
	return err
}
