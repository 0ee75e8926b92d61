package core

import (
	"errors"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrGroupCardinality = errors.New("expected exactly 2 distinct group labels")
	ErrEmptyGroup       = errors.New("group has no observations")
	ErrMissingColumn    = errors.New("column not found")
	ErrNonNumeric       = errors.New("value is not numeric")
	ErrNegativeValue    = errors.New("value must not be negative")
	ErrInvalidParameter = errors.New("invalid analysis parameter")

	// Degenerate results
	ErrNoValidIterations = errors.New("every bootstrap resample omitted a group")
)

// IsDataError reports whether err stems from the shape or content of the input data
func IsDataError(err error) bool {
	return errors.Is(err, ErrGroupCardinality) ||
		errors.Is(err, ErrEmptyGroup) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrNonNumeric) ||
		errors.Is(err, ErrNegativeValue)
}
