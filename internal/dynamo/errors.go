package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step hit the floor while the error
	// estimate was still above tolerance.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrNonConvergence indicates the step-size controller could not produce an
	// acceptable step at all.
	ErrNonConvergence = errors.New("dynamo: integrator did not converge")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// IntegrationFailure wraps a fatal integration error with the step context.
type IntegrationFailure struct {
	Step    int
	Time    float64
	H       float64
	Wrapped error
}

func (e *IntegrationFailure) Error() string {
	return fmt.Sprintf("step %d (t=%.6f, h=%.3g): %v", e.Step, e.Time, e.H, e.Wrapped)
}

func (e *IntegrationFailure) Unwrap() error {
	return e.Wrapped
}
