package contact

import (
	"math"

	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/geom"
	"github.com/san-kum/phystrace/internal/world"
)

// Resolver turns manifolds into velocity impulses and position corrections.
//
// Simultaneous contacts are handled with sequential Gauss-Seidel passes over
// the manifold points with accumulated, clamped impulses. This is an
// iterative approximation; it does not solve the complementarity problem
// exactly.
//
// The friction impulse at each point is the impulse that would cancel the
// tangential velocity, clamped to μ times the accumulated normal impulse.
// Kinetic friction therefore never exceeds what stops the slip: it cannot
// reverse the slip direction within one resolution, and a slip smaller than
// the kinetic limit ends at zero tangential velocity.
type Resolver struct {
	Iterations      int
	Slop            float64
	VelocityEpsilon float64
	DedupRadius     float64
}

func NewResolver(slop, velocityEpsilon float64) *Resolver {
	return &Resolver{
		Iterations:      8,
		Slop:            slop,
		VelocityEpsilon: velocityEpsilon,
		DedupRadius:     slop,
	}
}

type Resolution struct {
	NormalImpulse  float64
	TangentImpulse float64
	Regime         world.Regime
	Restitution    float64
	PreNormalVel   float64 // most negative normal velocity before resolution
	PostNormalVel  float64 // normal velocity at that point afterwards
	EnergyBefore   float64
	EnergyAfter    float64
	MaxPenetration float64 // after position correction
}

type solverPoint struct {
	armA, armB geom.Vec
	normalMass float64
	tanMass    float64
	bias       float64
	jn, jt     float64
}

// Resolve applies impulses for m to the velocities in x and pushes the pair
// apart by the penetration beyond slop. x is modified in place.
func (r *Resolver) Resolve(m Manifold, reg *world.Registry, x dynamo.State) Resolution {
	res := Resolution{EnergyBefore: reg.Kinetic(x), Regime: world.RegimeNone}
	if m.Empty() {
		res.EnergyAfter = res.EnergyBefore
		return res
	}

	a, b := m.Pair.A, -1
	if !m.Pair.Surface {
		b = m.Pair.B
	}
	invMA, invIA := r.inverse(reg, a)
	invMB, invIB := r.inverse(reg, b)

	mat := reg.PairMaterial(m.Pair)
	res.Restitution = mat.Restitution
	n := m.Normal
	t := geom.V(n[1], -n[0])

	pts := make([]solverPoint, len(m.Points))
	worst := 0
	mu := mat.Static
	slipping := false
	for k, p := range m.Points {
		sp := &pts[k]
		sp.armA = p.Pos.Sub(reg.Pos(x, a))
		if b >= 0 {
			sp.armB = p.Pos.Sub(reg.Pos(x, b))
		}
		rnA, rnB := geom.Cross(sp.armA, n), geom.Cross(sp.armB, n)
		rtA, rtB := geom.Cross(sp.armA, t), geom.Cross(sp.armB, t)
		sp.normalMass = 1 / (invMA + invMB + invIA*rnA*rnA + invIB*rnB*rnB)
		sp.tanMass = 1 / (invMA + invMB + invIA*rtA*rtA + invIB*rtB*rtB)

		dv := r.relVel(reg, x, a, b, sp)
		vn := dv.Dot(n)
		if vn < 0 {
			sp.bias = -mat.Restitution * vn
		}
		if vn < res.PreNormalVel {
			res.PreNormalVel = vn
			worst = k
		}
		if math.Abs(dv.Dot(t)) > r.VelocityEpsilon {
			slipping = true
		}
	}
	if res.PreNormalVel >= 0 {
		// Already separating: nothing to resolve but overlap.
		res.MaxPenetration = r.correct(m, reg, x, invMA, invMB)
		res.EnergyAfter = reg.Kinetic(x)
		return res
	}
	res.Regime = world.RegimeStatic
	if slipping {
		mu = mat.Kinetic
		res.Regime = world.RegimeKinetic
	}

	iters := max(r.Iterations, 1)
	for it := 0; it < iters; it++ {
		for k := range pts {
			sp := &pts[k]

			dv := r.relVel(reg, x, a, b, sp)
			lambda := -sp.normalMass * (dv.Dot(n) - sp.bias)
			jn := math.Max(sp.jn+lambda, 0)
			lambda, sp.jn = jn-sp.jn, jn
			r.apply(reg, x, a, b, sp, n.Mul(lambda), invIA, invIB)

			// Friction is bounded by the accumulated normal impulse; with a
			// large slip this clamps to the kinetic impulse μk·jn.
			dv = r.relVel(reg, x, a, b, sp)
			lambda = -sp.tanMass * dv.Dot(t)
			limit := mu * sp.jn
			jt := math.Max(-limit, math.Min(limit, sp.jt+lambda))
			lambda, sp.jt = jt-sp.jt, jt
			r.apply(reg, x, a, b, sp, t.Mul(lambda), invIA, invIB)
		}
	}

	for _, sp := range pts {
		res.NormalImpulse += sp.jn
		res.TangentImpulse += sp.jt
	}
	res.PostNormalVel = r.relVel(reg, x, a, b, &pts[worst]).Dot(n)
	res.MaxPenetration = r.correct(m, reg, x, invMA, invMB)
	res.EnergyAfter = reg.Kinetic(x)
	return res
}

func (r *Resolver) inverse(reg *world.Registry, i int) (float64, float64) {
	if i < 0 {
		return 0, 0
	}
	b := &reg.Bodies[i]
	if reg.RestLocked(i) {
		return b.InvMass, 0
	}
	return b.InvMass, b.InvI
}

func (r *Resolver) relVel(reg *world.Registry, x dynamo.State, a, b int, sp *solverPoint) geom.Vec {
	v := reg.Vel(x, a).Add(geom.CrossSV(reg.Omega(x, a), sp.armA))
	if b >= 0 {
		v = v.Sub(reg.Vel(x, b).Add(geom.CrossSV(reg.Omega(x, b), sp.armB)))
	}
	return v
}

func (r *Resolver) apply(reg *world.Registry, x dynamo.State, a, b int, sp *solverPoint, j geom.Vec, invIA, invIB float64) {
	body := &reg.Bodies[a]
	reg.SetVel(x, a, reg.Vel(x, a).Add(j.Mul(body.InvMass)))
	reg.SetOmega(x, a, reg.Omega(x, a)+invIA*geom.Cross(sp.armA, j))
	if b >= 0 {
		other := &reg.Bodies[b]
		reg.SetVel(x, b, reg.Vel(x, b).Sub(j.Mul(other.InvMass)))
		reg.SetOmega(x, b, reg.Omega(x, b)-invIB*geom.Cross(sp.armB, j))
	}
}

// correct pushes the pair apart along the normal by the depth beyond slop,
// split by inverse mass, and returns the remaining penetration.
func (r *Resolver) correct(m Manifold, reg *world.Registry, x dynamo.State, invMA, invMB float64) float64 {
	depth := m.MaxDepth()
	excess := depth - r.Slop
	if excess <= 0 {
		return math.Max(depth, 0)
	}
	total := invMA + invMB
	if total == 0 {
		return depth
	}
	n := m.Normal
	reg.SetPos(x, m.Pair.A, reg.Pos(x, m.Pair.A).Add(n.Mul(excess*invMA/total)))
	if !m.Pair.Surface {
		reg.SetPos(x, m.Pair.B, reg.Pos(x, m.Pair.B).Sub(n.Mul(excess*invMB/total)))
	}
	return r.Slop
}
