package integrators

import "github.com/san-kum/phystrace/internal/dynamo"

// Verlet is velocity Verlet over a state laid out as [q..., v..., extra...].
// Split is len(q); entries past 2*Split are advanced with the trapezoid rule.
type Verlet struct {
	Split   int
	scratch dynamo.State
}

func NewVerlet(split int) *Verlet {
	return &Verlet{Split: split}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := v.Split
	if half <= 0 || 2*half > n {
		half = n / 2
	}
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, t)
	dt2 := dt * dt

	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*dx[half+i]*dt2
	}

	copy(v.scratch, x)
	for i := 0; i < half; i++ {
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i] + dx[half+i]*dt
	}

	dxNew := dyn.Derive(v.scratch, t+dt)

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}
	for i := 2 * half; i < n; i++ {
		result[i] = x[i] + (dx[i]+dxNew[i])*halfDt
	}

	return result
}
