package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrDatasetNotFound  = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrSessionNotFound  = fmt.Errorf("%w: session", ErrNotFound)
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)
	ErrFilterNotFound   = fmt.Errorf("%w: filter", ErrNotFound)

	// Input errors
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateVariable = errors.New("variable already used by an existing filter")

	// Generation outcomes
	ErrNoSuitableFilters = errors.New("no suitable filters could be generated")
	ErrGeneratorFailed   = errors.New("filter generator failed")
)

// NewNotFoundError reports a missing resource by kind and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewInvalidInputError reports malformed input for a field
func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

// NewDuplicateVariableError reports a variable code already claimed by a filter
func NewDuplicateVariableError(code VariableCode, owner FilterID) error {
	return fmt.Errorf("%w: %s (claimed by %s)", ErrDuplicateVariable, code, owner)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsDuplicateVariableError(err error) bool {
	return errors.Is(err, ErrDuplicateVariable)
}

func IsNoSuitableFiltersError(err error) bool {
	return errors.Is(err, ErrNoSuitableFilters)
}
