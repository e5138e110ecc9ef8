package world

import (
	"math"

	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/geom"
)

type RestKind int

const (
	// RestPoint is a circle or a single polygon vertex touching a surface.
	RestPoint RestKind = iota
	// RestFace is a polygon edge lying flat on a surface; rotation is locked.
	RestFace
)

type Regime int

const (
	RegimeNone Regime = iota
	RegimeStatic
	RegimeKinetic
)

func (g Regime) String() string {
	switch g {
	case RegimeStatic:
		return "static"
	case RegimeKinetic:
		return "kinetic"
	}
	return "none"
}

// Rest is a persistent contact between a body and a surface. Its normal and
// friction forces are solved inside Derive instead of by impulses.
type Rest struct {
	Body    int
	Surface int
	Kind    RestKind
	Vertex  int // polygon vertex for RestPoint, -1 for circles
	Face    [2]int
	Sliding bool
	Sign    float64 // sign of the slip velocity while sliding
}

// RestForce is the constraint force a Rest applies at a given state.
type RestForce struct {
	Normal  float64
	Tangent float64
	Regime  Regime
	Point   geom.Vec
	Slip    float64 // tangential velocity of the contact point
}

func (r *Registry) RestOn(body, surface int) int {
	for k := range r.Rests {
		if r.Rests[k].Body == body && r.Rests[k].Surface == surface {
			return k
		}
	}
	return -1
}

func (r *Registry) AddRest(rs Rest) {
	if k := r.RestOn(rs.Body, rs.Surface); k >= 0 {
		r.Rests[k] = rs
		return
	}
	r.Rests = append(r.Rests, rs)
}

func (r *Registry) RemoveRest(k int) {
	r.Rests = append(r.Rests[:k], r.Rests[k+1:]...)
}

// RestLocked reports whether body i has its rotation locked by a face contact.
func (r *Registry) RestLocked(i int) bool {
	for _, rs := range r.Rests {
		if rs.Body == i && rs.Kind == RestFace {
			return true
		}
	}
	return false
}

// restArm returns the contact point and its lever arm about the body center.
func (r *Registry) restArm(x dynamo.State, rs *Rest) (point, arm geom.Vec) {
	b := &r.Bodies[rs.Body]
	s := &r.Surfaces[rs.Surface]
	pos := r.Pos(x, rs.Body)
	switch {
	case rs.Kind == RestFace:
		angle := r.Angle(x, rs.Body)
		p0 := geom.ToWorld(b.Local[rs.Face[0]], pos, angle)
		p1 := geom.ToWorld(b.Local[rs.Face[1]], pos, angle)
		point = p0.Add(p1).Mul(0.5)
	case rs.Vertex >= 0:
		point = geom.ToWorld(b.Local[rs.Vertex], pos, r.Angle(x, rs.Body))
	default:
		point = pos.Sub(s.Normal.Mul(b.Radius))
	}
	return point, point.Sub(pos)
}

// Slip is the tangential velocity of the rest's contact point.
func (r *Registry) Slip(x dynamo.State, k int) float64 {
	rs := &r.Rests[k]
	point, _ := r.restArm(x, rs)
	return r.PointVel(x, rs.Body, point).Dot(r.Surfaces[rs.Surface].Tangent)
}

// solveRest computes the constraint force of rest k given the body's
// unconstrained accelerations, and folds it into acc and alpha. The normal
// force keeps the gap's second derivative at zero; friction either holds the
// contact point (static, |T| ≤ μs·N) or opposes slip with μk·N.
func (r *Registry) solveRest(x dynamo.State, k int, acc []geom.Vec, alpha []float64) RestForce {
	rs := &r.Rests[k]
	i := rs.Body
	b := &r.Bodies[i]
	s := &r.Surfaces[rs.Surface]
	n, t := s.Normal, s.Tangent
	mat := r.PairMaterial(Pair{A: i, B: rs.Surface, Surface: true})

	point, arm := r.restArm(x, rs)
	invM, invI := b.InvMass, b.InvI
	if rs.Kind == RestFace {
		invI = 0
	}
	w := r.Omega(x, i)

	ap := acc[i].Add(geom.CrossSV(alpha[i], arm))
	if rs.Vertex >= 0 && rs.Kind == RestPoint {
		ap = ap.Sub(arm.Mul(w * w))
	}
	bn, bt := ap.Dot(n), ap.Dot(t)
	rn, rt := geom.Cross(arm, n), geom.Cross(arm, t)
	knn := invM + invI*rn*rn
	ktt := invM + invI*rt*rt
	knt := invI * rn * rt

	out := RestForce{Point: point, Slip: r.PointVel(x, i, point).Dot(t)}
	kinetic := func(sign float64) {
		den := knn - mat.Kinetic*sign*knt
		out.Normal = -bn / den
		out.Tangent = -mat.Kinetic * sign * out.Normal
		out.Regime = RegimeKinetic
	}

	if rs.Sliding {
		kinetic(rs.Sign)
	} else {
		det := knn*ktt - knt*knt
		out.Normal = (-bn*ktt + bt*knt) / det
		out.Tangent = (-bt*knn + bn*knt) / det
		out.Regime = RegimeStatic
		if out.Normal > 0 && math.Abs(out.Tangent) > mat.Static*out.Normal*(1+1e-12) {
			kinetic(-math.Copysign(1, out.Tangent))
		}
	}
	if !(out.Normal > 0) {
		return RestForce{Point: point, Slip: out.Slip, Normal: out.Normal}
	}

	f := n.Mul(out.Normal).Add(t.Mul(out.Tangent))
	acc[i] = acc[i].Add(f.Mul(invM))
	alpha[i] += invI * geom.Cross(arm, f)
	return out
}

// RestArm returns the contact point of rest k and its lever arm.
func (r *Registry) RestArm(x dynamo.State, k int) (point, arm geom.Vec) {
	return r.restArm(x, &r.Rests[k])
}

// RestPair is the contact pair rest k sits on.
func (r *Registry) RestPair(k int) Pair {
	rs := &r.Rests[k]
	for _, p := range r.Pairs {
		if p.Surface && p.A == rs.Body && p.B == rs.Surface {
			return p
		}
	}
	return Pair{A: rs.Body, B: rs.Surface, Surface: true, Decl: -1}
}
