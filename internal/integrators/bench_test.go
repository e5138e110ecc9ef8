package integrators

import (
	"testing"

	"github.com/san-kum/phystrace/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 2 }
func (b *benchDynamics) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkVerlet(b *testing.B) {
	integrator := NewVerlet(1)
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

type benchBodies struct{}

func (b *benchBodies) StateDim() int { return 31 }
func (b *benchBodies) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, 31)
	for i := 0; i < 15; i++ {
		dx[i] = x[15+i]
		dx[15+i] = -x[i] * 0.1
	}
	return dx
}

func BenchmarkRK45Advance_FiveBodies(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchBodies{}
	x := make(dynamo.State, 31)
	for i := range x {
		x[i] = float64(i) * 0.1
	}
	lim := dynamo.DefaultLimits()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := integrator.Advance(dyn, x, 0, 0.001, lim)
		if err != nil {
			b.Fatal(err)
		}
		x = res.X
	}
}
