package integrators

import (
	"math"

	"github.com/san-kum/phystrace/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	// fifth minus fourth order weights
	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.1,
		maxScale: 5.0,
	}
}

// Step performs a single attempt of size dt and discards the error estimate.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _ := r.Trial(dyn, x, t, dt)
	return xNew
}

// Trial evaluates the seven stages once and returns the fifth-order solution
// together with the max-norm of its difference to the embedded fourth-order one.
func (r *RK45) Trial(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, float64) {
	n := len(x)

	k1 := dyn.Derive(x, t)

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2 := dyn.Derive(x2, t+a2*dt)

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := dyn.Derive(x3, t+a3*dt)

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := dyn.Derive(x4, t+a4*dt)

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := dyn.Derive(x5, t+a5*dt)

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := dyn.Derive(x6, t+dt)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := dyn.Derive(xNew, t+dt)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := math.Abs(dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i]))
		if math.IsNaN(errEst) {
			return xNew, math.NaN()
		}
		errMax = math.Max(errMax, errEst)
	}

	return xNew, errMax
}

func (r *RK45) factor(errEst, tol float64) float64 {
	if errEst == 0 {
		return r.maxScale
	}
	f := r.safety * math.Pow(tol/errEst, 0.2)
	return math.Max(r.minScale, math.Min(r.maxScale, f))
}

// Advance runs the accept/reject loop starting from a proposed step dt.
// A rejected attempt never touches x. When the step has reached lim.MinDt and
// is still rejected, the step is forced and flagged in the result.
func (r *RK45) Advance(dyn dynamo.System, x dynamo.State, t, dt float64, lim dynamo.Limits) (dynamo.StepResult, error) {
	h := dt
	if lim.MaxDt > 0 && h > lim.MaxDt {
		h = lim.MaxDt
	}
	rejected := 0

	for {
		xNew, errEst := r.Trial(dyn, x, t, h)
		finite := !math.IsNaN(errEst) && !math.IsInf(errEst, 0) && xNew.IsValid()

		if finite && errEst <= lim.Tolerance {
			next := h * r.factor(errEst, lim.Tolerance)
			if lim.MaxDt > 0 && next > lim.MaxDt {
				next = lim.MaxDt
			}
			if next < lim.MinDt {
				next = lim.MinDt
			}
			return dynamo.StepResult{X: xNew, H: h, HNext: next, ErrEst: errEst, Rejected: rejected}, nil
		}

		if h <= lim.MinDt {
			if !finite {
				return dynamo.StepResult{H: h, Rejected: rejected}, dynamo.ErrInvalidState
			}
			return dynamo.StepResult{X: xNew, H: h, HNext: lim.MinDt, ErrEst: errEst, Rejected: rejected, Forced: true}, nil
		}

		rejected++
		if lim.MaxRejects > 0 && rejected > lim.MaxRejects {
			return dynamo.StepResult{H: h, ErrEst: errEst, Rejected: rejected}, dynamo.ErrNonConvergence
		}

		scale := r.minScale
		if finite {
			scale = r.factor(errEst, lim.Tolerance)
		}
		h = math.Max(h*scale, lim.MinDt)
	}
}
