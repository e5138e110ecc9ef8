package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/phystrace/internal/dynamo"
)

type decay struct{}

func (d *decay) StateDim() int { return 1 }
func (d *decay) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-x[0]}
}

func TestRK45_ErrorEstimateScalesFifthOrder(t *testing.T) {
	integ := NewRK45()
	dyn := &decay{}
	x0 := dynamo.State{1.0}

	_, e1 := integ.Trial(dyn, x0, 0, 0.2)
	_, e2 := integ.Trial(dyn, x0, 0, 0.1)
	_, e3 := integ.Trial(dyn, x0, 0, 0.05)

	for i, ratio := range []float64{e1 / e2, e2 / e3} {
		if ratio < 20 || ratio > 45 {
			t.Errorf("halving %d: estimate ratio %.2f, want ~32", i+1, ratio)
		}
	}
}

func TestRK45_AdvanceMeetsTolerance(t *testing.T) {
	dyn := &simpleDynamics{}

	for _, tol := range []float64{1e-6, 1e-8, 1e-10} {
		integ := NewRK45()
		lim := dynamo.Limits{Tolerance: tol, MinDt: 1e-12, MaxDt: 0.5, MaxRejects: 50}

		x := dynamo.State{1.0, 0.0}
		tm := 0.0
		h := 0.1
		const T = 2.0
		for tm < T {
			if tm+h > T {
				h = T - tm
			}
			res, err := integ.Advance(dyn, x, tm, h, lim)
			if err != nil {
				t.Fatalf("tol %g: advance failed: %v", tol, err)
			}
			if res.Forced {
				t.Fatalf("tol %g: unexpected forced step", tol)
			}
			if res.ErrEst > tol {
				t.Errorf("tol %g: accepted step with error %g", tol, res.ErrEst)
			}
			x = res.X
			tm += res.H
			h = res.HNext
		}

		if got := math.Abs(x[0] - math.Cos(T)); got > 1e3*tol {
			t.Errorf("tol %g: global error %g", tol, got)
		}
	}
}

func TestRK45_RejectionLeavesStateUntouched(t *testing.T) {
	integ := NewRK45()
	dyn := &simpleDynamics{}
	x0 := dynamo.State{1.0, 0.0}
	lim := dynamo.Limits{Tolerance: 1e-12, MinDt: 1e-9, MaxDt: 10, MaxRejects: 100}

	res, err := integ.Advance(dyn, x0, 0, 5.0, lim)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if res.Rejected == 0 {
		t.Error("expected at least one rejected attempt for a 5s step")
	}
	if x0[0] != 1.0 || x0[1] != 0.0 {
		t.Errorf("input state mutated: %v", x0)
	}
	if res.H >= 5.0 {
		t.Errorf("accepted step should have shrunk, got %v", res.H)
	}
}

func TestRK45_ForcesStepAtFloor(t *testing.T) {
	integ := NewRK45()
	dyn := &simpleDynamics{}
	lim := dynamo.Limits{Tolerance: 1e-30, MinDt: 0.05, MaxDt: 0.05, MaxRejects: 10}

	res, err := integ.Advance(dyn, dynamo.State{1.0, 0.0}, 0, 0.05, lim)
	if err != nil {
		t.Fatalf("forced step should not error: %v", err)
	}
	if !res.Forced {
		t.Error("expected forced step at h_min")
	}
	if !res.X.IsValid() {
		t.Error("forced step produced invalid state")
	}
}

func TestRK45_GrowthIsClamped(t *testing.T) {
	integ := NewRK45()
	lim := dynamo.Limits{Tolerance: 1e-3, MinDt: 1e-9, MaxDt: 100, MaxRejects: 10}

	res, err := integ.Advance(&decay{}, dynamo.State{1.0}, 0, 1e-4, lim)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if res.HNext > 5*res.H+1e-15 {
		t.Errorf("step grew by %.2fx, want at most 5x", res.HNext/res.H)
	}
}
