package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrColumnNotFound   = fmt.Errorf("%w: column", ErrNotFound)
	ErrTestNotFound     = fmt.Errorf("%w: test", ErrNotFound)
	ErrRecordNotFound   = fmt.Errorf("%w: analysis record", ErrNotFound)
	ErrSnapshotNotFound = fmt.Errorf("%w: snapshot", ErrNotFound)

	// Classification errors
	// ErrClassificationAmbiguous marks a heuristic tie between semantic
	// types. It is resolved deterministically and logged, never fatal.
	ErrClassificationAmbiguous = errors.New("ambiguous column classification")

	// Profiling errors
	// ErrProfilingUndefined marks a statistic that cannot be computed from
	// the available data (e.g. skewness of a single value). Profiles carry
	// NaN markers instead of failing.
	ErrProfilingUndefined = errors.New("statistic undefined for available data")
	ErrEmptyColumn        = errors.New("column has no usable values")

	// Execution errors
	ErrRequirementsNotMet = errors.New("test requirements not met")
	ErrExecutionFailure   = errors.New("test execution failed")
	ErrDegenerateSample   = fmt.Errorf("%w: degenerate sample", ErrExecutionFailure)
	ErrPersistenceFailure = errors.New("analysis record persistence failed")
	ErrInsufficientData   = errors.New("insufficient data for analysis")
)

// Error constructors with context
func NewExecutionError(testID string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExecutionFailure, testID, err)
}

func NewPersistenceError(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsRequirementsError(err error) bool {
	return errors.Is(err, ErrRequirementsNotMet)
}

func IsExecutionError(err error) bool {
	return errors.Is(err, ErrExecutionFailure)
}

func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistenceFailure)
}
