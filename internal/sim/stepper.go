package sim

import (
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/integrators"
)

// stepper hides the difference between the adaptive and the fixed-step
// integrators from the main loop.
type stepper struct {
	fixed    dynamo.Integrator
	adaptive dynamo.AdaptiveIntegrator
	dt       float64
	lim      dynamo.Limits
}

func newStepper(kind string, s contract.Simulation, tol float64, split int) *stepper {
	st := &stepper{
		dt: s.Dt,
		lim: dynamo.Limits{
			Tolerance:  tol,
			MinDt:      s.HMin,
			MaxDt:      s.HMax,
			MaxRejects: dynamo.DefaultLimits().MaxRejects,
		},
	}
	switch kind {
	case contract.IntegratorRK4:
		st.fixed = integrators.NewRK4()
	case contract.IntegratorVerlet:
		st.fixed = integrators.NewVerlet(split)
	case contract.IntegratorEuler:
		st.fixed = integrators.NewEuler()
	default:
		st.adaptive = integrators.NewRK45()
	}
	return st
}

func (s *stepper) isAdaptive() bool { return s.adaptive != nil }

// advance attempts one step of size h from (x, t).
func (s *stepper) advance(sys dynamo.System, x dynamo.State, t, h float64) (dynamo.StepResult, error) {
	if s.adaptive != nil {
		return s.adaptive.Advance(sys, x, t, h, s.lim)
	}
	xNew := s.fixed.Step(sys, x, t, h)
	if !xNew.IsValid() {
		return dynamo.StepResult{H: h}, dynamo.ErrInvalidState
	}
	return dynamo.StepResult{X: xNew, H: h, HNext: s.dt}, nil
}

// to integrates exactly h from (x, t) in one step, used to land on an
// event time inside an accepted step.
func (s *stepper) to(sys dynamo.System, x dynamo.State, t, h float64) dynamo.State {
	if s.adaptive != nil {
		return s.adaptive.Step(sys, x, t, h)
	}
	return s.fixed.Step(sys, x, t, h)
}
