package world

import (
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/geom"
)

// Derive implements dynamo.System.
func (r *Registry) Derive(x dynamo.State, t float64) dynamo.State {
	n := len(r.Bodies)
	split := r.Split()
	dx := make(dynamo.State, len(x))
	copy(dx[:split], x[split:2*split])

	acc, alpha, power, _ := r.accelerations(x, t)
	for i := 0; i < n; i++ {
		o := split + 3*i
		dx[o] = acc[i][0]
		dx[o+1] = acc[i][1]
		dx[o+2] = alpha[i]
	}
	dx[len(dx)-1] = power
	return dx
}

// RestForces solves every persistent contact at x.
func (r *Registry) RestForces(x dynamo.State, t float64) []RestForce {
	_, _, _, rf := r.accelerations(x, t)
	return rf
}

func (r *Registry) accelerations(x dynamo.State, t float64) ([]geom.Vec, []float64, float64, []RestForce) {
	n := len(r.Bodies)
	force := make([]geom.Vec, n)
	torque := make([]float64, n)
	power := 0.0

	for i := range r.Bodies {
		force[i] = r.Gravity.Mul(r.Bodies[i].Mass)
	}

	for k := range r.Springs {
		if !r.Active.Spring(k) {
			continue
		}
		power += r.springForce(x, k, force, torque)
	}

	for k := range r.Forces {
		if !r.Active.Force(k) {
			continue
		}
		f := &r.Forces[k]
		v := r.Vel(x, f.Body)
		switch f.Kind {
		case contract.ForceConstant:
			force[f.Body] = force[f.Body].Add(f.Vector)
		case contract.ForceLinearDrag:
			force[f.Body] = force[f.Body].Sub(v.Mul(f.Coef))
			power += f.Coef * v.Dot(v)
		case contract.ForceQuadraticDrag:
			speed := v.Len()
			force[f.Body] = force[f.Body].Sub(v.Mul(f.Coef * speed))
			power += f.Coef * speed * speed * speed
		}
	}

	acc := make([]geom.Vec, n)
	alpha := make([]float64, n)
	for i := range r.Bodies {
		b := &r.Bodies[i]
		acc[i] = force[i].Mul(b.InvMass)
		alpha[i] = torque[i] * b.InvI
	}

	var rests []RestForce
	if len(r.Rests) > 0 {
		rests = make([]RestForce, len(r.Rests))
		for k := range r.Rests {
			rests[k] = r.solveRest(x, k, acc, alpha)
			if rests[k].Normal > 0 {
				power -= rests[k].Tangent * rests[k].Slip
			}
		}
		for i := range r.Bodies {
			if r.RestLocked(i) {
				alpha[i] = 0
			}
		}
	}
	return acc, alpha, power, rests
}

// springForce accumulates spring k and returns its damping power.
func (r *Registry) springForce(x dynamo.State, k int, force []geom.Vec, torque []float64) float64 {
	sp := &r.Springs[k]
	pa, va, armA := r.anchor(x, sp.A, sp.AnchorA)
	pb, vb, armB := r.anchor(x, sp.B, sp.AnchorB)

	d := pb.Sub(pa)
	u, l := geom.Unit(d)
	if l == 0 {
		return 0
	}
	rel := vb.Sub(va).Dot(u)
	mag := sp.K*(l-sp.Rest) + sp.C*rel
	f := u.Mul(mag) // pulls A toward B when stretched

	force[sp.A] = force[sp.A].Add(f)
	torque[sp.A] += geom.Cross(armA, f)
	if sp.B >= 0 {
		force[sp.B] = force[sp.B].Sub(f)
		torque[sp.B] -= geom.Cross(armB, f)
	}
	return sp.C * rel * rel
}

// anchor returns the world position, velocity and lever arm of a spring end.
// Body index -1 means the local point is already a fixed world point.
func (r *Registry) anchor(x dynamo.State, body int, local geom.Vec) (geom.Vec, geom.Vec, geom.Vec) {
	if body < 0 {
		return local, geom.Vec{}, geom.Vec{}
	}
	pos := r.Pos(x, body)
	arm := geom.Rotate(local, r.Angle(x, body))
	return pos.Add(arm), r.Vel(x, body).Add(geom.CrossSV(r.Omega(x, body), arm)), arm
}
