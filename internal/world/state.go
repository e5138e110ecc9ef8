package world

import (
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/geom"
)

// State layout: [x0 y0 θ0 ... | vx0 vy0 ω0 ... | W], W being the work
// dissipated so far by friction, damping and drag.

func (r *Registry) StateDim() int { return 6*len(r.Bodies) + 1 }

// Split is the offset of the first velocity component.
func (r *Registry) Split() int { return 3 * len(r.Bodies) }

func (r *Registry) InitialState(c *contract.Contract) dynamo.State {
	x := make(dynamo.State, r.StateDim())
	for i, cb := range c.Bodies {
		r.SetPos(x, i, cb.Initial.Position.V())
		x[3*i+2] = cb.Initial.Angle
		r.SetVel(x, i, cb.Initial.Velocity.V())
		if r.Bodies[i].InvI > 0 {
			r.SetOmega(x, i, cb.Initial.AngularVelocity)
		}
	}
	return x
}

func (r *Registry) Pos(x dynamo.State, i int) geom.Vec { return geom.Vec{x[3*i], x[3*i+1]} }

func (r *Registry) Angle(x dynamo.State, i int) float64 { return x[3*i+2] }

func (r *Registry) Vel(x dynamo.State, i int) geom.Vec {
	o := r.Split() + 3*i
	return geom.Vec{x[o], x[o+1]}
}

func (r *Registry) Omega(x dynamo.State, i int) float64 { return x[r.Split()+3*i+2] }

func (r *Registry) SetPos(x dynamo.State, i int, p geom.Vec) {
	x[3*i], x[3*i+1] = p[0], p[1]
}

func (r *Registry) SetVel(x dynamo.State, i int, v geom.Vec) {
	o := r.Split() + 3*i
	x[o], x[o+1] = v[0], v[1]
}

func (r *Registry) SetOmega(x dynamo.State, i int, w float64) { x[r.Split()+3*i+2] = w }

func (r *Registry) Dissipated(x dynamo.State) float64 { return x[len(x)-1] }

// PointVel is the velocity of the world point p rigidly attached to body i.
func (r *Registry) PointVel(x dynamo.State, i int, p geom.Vec) geom.Vec {
	arm := p.Sub(r.Pos(x, i))
	return r.Vel(x, i).Add(geom.CrossSV(r.Omega(x, i), arm))
}

// ApplyImpulse changes body i's velocities by impulse j applied at arm.
func (r *Registry) ApplyImpulse(x dynamo.State, i int, j, arm geom.Vec) {
	b := &r.Bodies[i]
	r.SetVel(x, i, r.Vel(x, i).Add(j.Mul(b.InvMass)))
	if b.InvI > 0 {
		r.SetOmega(x, i, r.Omega(x, i)+b.InvI*geom.Cross(arm, j))
	}
}

// Vertices returns body i's polygon in world coordinates.
func (r *Registry) Vertices(x dynamo.State, i int) []geom.Vec {
	b := &r.Bodies[i]
	pos, angle := r.Pos(x, i), r.Angle(x, i)
	out := make([]geom.Vec, len(b.Local))
	for k, v := range b.Local {
		out[k] = geom.ToWorld(v, pos, angle)
	}
	return out
}
