package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Precondition violations: fatal, surfaced immediately, no partial results
	ErrPrecondition       = errors.New("precondition violated")
	ErrMissingResiduals   = fmt.Errorf("%w: model fit carries no residual matrix", ErrPrecondition)
	ErrInvalidGeneIDs     = fmt.Errorf("%w: gene identifiers missing or not unique", ErrPrecondition)
	ErrUnknownFamily      = fmt.Errorf("%w: unrecognized model family", ErrPrecondition)
	ErrUnknownCoefficient = fmt.Errorf("%w: coefficient not present in fit", ErrPrecondition)
	ErrEmptyCollection    = fmt.Errorf("%w: empty gene-set collection", ErrPrecondition)
	ErrNoSetsRemaining    = fmt.Errorf("%w: no gene sets survive the size filter", ErrPrecondition)

	// Resolution errors (unmatched members are dropped silently; a set that
	// references rows outside the fit is a caller bug, not a resolution gap)
	ErrSetOutOfRange = errors.New("gene-set index out of range")

	// Numeric degeneracy: set sizes the test formulas cannot support
	ErrDegenerateSet = errors.New("degenerate gene-set size")
)

// Error constructors with context
func NewCoefficientError(coef string) error {
	return fmt.Errorf("%w: %q", ErrUnknownCoefficient, coef)
}

func NewDegenerateSetError(name string, size, universe int) error {
	return fmt.Errorf("%w: set %q has %d of %d genes", ErrDegenerateSet, name, size, universe)
}

// Error checking helpers
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

func IsDegenerateSetError(err error) bool {
	return errors.Is(err, ErrDegenerateSet)
}
