package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs is the max-norm of s.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// LerpInto writes a + u*(b-a) into dst and returns it.
func LerpInto(dst, a, b State, u float64) State {
	for i := range dst {
		dst[i] = a[i] + u*(b[i]-a[i])
	}
	return dst
}

// System is a first-order ODE dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Hamiltonian systems expose a conserved quantity for drift checks.
type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// Limits bound the adaptive step-size controller.
type Limits struct {
	Tolerance  float64
	MinDt      float64
	MaxDt      float64
	MaxRejects int
}

func DefaultLimits() Limits {
	return Limits{
		Tolerance:  1e-8,
		MinDt:      1e-9,
		MaxDt:      0.01,
		MaxRejects: 60,
	}
}

// StepResult describes one accepted (or forced) adaptive step.
type StepResult struct {
	X        State
	H        float64
	HNext    float64
	ErrEst   float64
	Rejected int
	Forced   bool
}

type AdaptiveIntegrator interface {
	Integrator
	Advance(dyn System, x State, t, dt float64, lim Limits) (StepResult, error)
}
