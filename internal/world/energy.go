package world

import (
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/geom"
)

func (r *Registry) Kinetic(x dynamo.State) float64 {
	e := 0.0
	for i := range r.Bodies {
		b := &r.Bodies[i]
		v := r.Vel(x, i)
		w := r.Omega(x, i)
		e += 0.5*b.Mass*v.Dot(v) + 0.5*b.Inertia*w*w
	}
	return e
}

// Potential covers gravity, active springs and active constant forces.
func (r *Registry) Potential(x dynamo.State) float64 {
	e := 0.0
	for i := range r.Bodies {
		e -= r.Bodies[i].Mass * r.Gravity.Dot(r.Pos(x, i))
	}
	for k := range r.Springs {
		if !r.Active.Spring(k) {
			continue
		}
		sp := &r.Springs[k]
		pa, _, _ := r.anchor(x, sp.A, sp.AnchorA)
		pb, _, _ := r.anchor(x, sp.B, sp.AnchorB)
		s := pb.Sub(pa).Len() - sp.Rest
		e += 0.5 * sp.K * s * s
	}
	for k := range r.Forces {
		f := &r.Forces[k]
		if f.Kind == contract.ForceConstant && r.Active.Force(k) {
			e -= f.Vector.Dot(r.Pos(x, f.Body))
		}
	}
	return e
}

// Energy is the mechanical energy. Energy plus Dissipated is conserved
// between impacts.
func (r *Registry) Energy(x dynamo.State) float64 {
	return r.Kinetic(x) + r.Potential(x)
}

func (r *Registry) Momentum(x dynamo.State) geom.Vec {
	p := geom.Vec{}
	for i := range r.Bodies {
		p = p.Add(r.Vel(x, i).Mul(r.Bodies[i].Mass))
	}
	return p
}

// AngularMomentum is taken about the world origin.
func (r *Registry) AngularMomentum(x dynamo.State) float64 {
	l := 0.0
	for i := range r.Bodies {
		b := &r.Bodies[i]
		l += b.Mass*geom.Cross(r.Pos(x, i), r.Vel(x, i)) + b.Inertia*r.Omega(x, i)
	}
	return l
}

// BodyQuantity samples a per-body signal.
func (r *Registry) BodyQuantity(x dynamo.State, i int, q string) float64 {
	switch q {
	case contract.QuantityX:
		return x[3*i]
	case contract.QuantityY:
		return x[3*i+1]
	case contract.QuantityAngle:
		return r.Angle(x, i)
	case contract.QuantityVX:
		return r.Vel(x, i)[0]
	case contract.QuantityVY:
		return r.Vel(x, i)[1]
	case contract.QuantityOmega:
		return r.Omega(x, i)
	case contract.QuantitySpeed:
		return r.Vel(x, i).Len()
	}
	return 0
}
