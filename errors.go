package smbo

import (
	"errors"
	"fmt"
)

//////
// Sentinel errors.
//////

var (
	// ErrDimensionMismatch is matched by every vector-length contract
	// violation between x, P, Q, and the stored samples.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInsufficientData is returned when fewer than two samples are given to
	// a surrogate fit.
	ErrInsufficientData = errors.New("insufficient data: at least 2 samples are required")

	// ErrSingularCorrelationMatrix is matched when R is numerically
	// non-invertible, usually because of (near) duplicate samples or a
	// degenerate hyperparameter vector.
	ErrSingularCorrelationMatrix = errors.New("singular correlation matrix")

	// ErrOutOfDomain marks a point outside the domain rectangle. Acquisition
	// optimizers handle it internally with a penalty.
	ErrOutOfDomain = errors.New("point outside domain")

	// ErrInvalidDomain is returned for empty domains or bounds with Min >= Max.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidHyperparameters is returned for P or Q components that are not
	// finite and strictly positive, or for malformed likelihood bounds.
	ErrInvalidHyperparameters = errors.New("invalid hyperparameters")
)

//////
// Typed errors.
//////

// DimensionError reports which vector had the wrong length.
// Use errors.Is(err, ErrDimensionMismatch) to check for it.
type DimensionError struct {
	// What names the offending vector, e.g. "x2" or "P".
	What string
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: %s has length %d, want %d", e.What, e.Got, e.Want)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// SingularMatrixError reports a correlation matrix that could not be
// inverted. Condition is the LU condition estimate when one was available.
type SingularMatrixError struct {
	Condition float64
	Reason    string
}

func (e *SingularMatrixError) Error() string {
	if e.Condition > 0 {
		return fmt.Sprintf("singular correlation matrix: %s (condition %.3g)", e.Reason, e.Condition)
	}

	return "singular correlation matrix: " + e.Reason
}

func (e *SingularMatrixError) Is(target error) bool {
	return target == ErrSingularCorrelationMatrix
}

// IterationError wraps a fatal failure of one SMBO iteration together with
// the iteration index, the state the loop was in and the offending point.
type IterationError struct {
	Iteration int
	State     State
	X         []float64
	Err       error
}

func (e *IterationError) Error() string {
	if e.X != nil {
		return fmt.Sprintf("iteration %d (%s) at x=%v: %v", e.Iteration, e.State, e.X, e.Err)
	}

	return fmt.Sprintf("iteration %d (%s): %v", e.Iteration, e.State, e.Err)
}

func (e *IterationError) Unwrap() error {
	return e.Err
}
