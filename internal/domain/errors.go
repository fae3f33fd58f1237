package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, malformed enum value).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when an optimistic concurrency check fails —
// typically a booking status update that observed a stale status.
// Callers should re-read the record and re-evaluate before retrying.
var ErrConflict = errors.New("conflict")

// unknownEnum builds the ErrValidation-wrapped error used by the Parse*
// functions for closed enumerations.
func unknownEnum(kind, value string) error {
	return fmt.Errorf("%w: unknown %s %q", ErrValidation, kind, value)
}
