package phasegrid

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the umbrella error for every input the layout rejects.
// All other errors of this package wrap it.
var ErrInvalidInput = errors.New("invalid input")

var (
	// ErrLabelMismatch reports a boundary list that does not have exactly one
	// more entry than the label list.
	ErrLabelMismatch = fmt.Errorf("%w: label/boundary count mismatch",
		ErrInvalidInput)

	// ErrBoundaryRange reports a boundary that is negative, decreasing, or
	// beyond the end of the trial sequence.
	ErrBoundaryRange = fmt.Errorf("%w: boundary out of range", ErrInvalidInput)

	// ErrUnknownCategory reports a trial whose code has no palette entry.
	ErrUnknownCategory = fmt.Errorf("%w: unknown category", ErrInvalidInput)

	// ErrInvalidParameter reports a bad layout parameter, such as a
	// non-positive row count.
	ErrInvalidParameter = fmt.Errorf("%w: invalid parameter", ErrInvalidInput)
)
