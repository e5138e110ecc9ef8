// Package contact builds contact manifolds and resolves them with
// restitution and Coulomb friction impulses.
package contact

import (
	"math"

	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/geom"
	"github.com/san-kum/phystrace/internal/world"
)

// Point is one contact point. Depth is positive when the shapes overlap.
type Point struct {
	Pos    geom.Vec
	Depth  float64
	Vertex int // vertex of body A resting on a surface, -1 otherwise
}

// Manifold lives for a single resolution pass. Normal points from B to A.
type Manifold struct {
	Pair   world.Pair
	Normal geom.Vec
	Points []Point
}

func (m *Manifold) Empty() bool { return len(m.Points) == 0 }

func (m *Manifold) MaxDepth() float64 {
	d := math.Inf(-1)
	for _, p := range m.Points {
		d = math.Max(d, p.Depth)
	}
	return d
}

// Collide returns the manifold of pair p, keeping points whose separation is
// at most margin. Points closer than dedup are merged, the deeper one kept.
func Collide(reg *world.Registry, x dynamo.State, p world.Pair, margin, dedup float64) Manifold {
	m := Manifold{Pair: p}
	if p.Surface {
		collideSurface(reg, x, &m, margin)
	} else {
		collideBodies(reg, x, &m, margin)
	}
	m.Points = Dedup(m.Points, dedup)
	return m
}

func collideSurface(reg *world.Registry, x dynamo.State, m *Manifold, margin float64) {
	b := &reg.Bodies[m.Pair.A]
	s := &reg.Surfaces[m.Pair.B]
	pos := reg.Pos(x, m.Pair.A)
	m.Normal = s.Normal

	if b.IsCircle() {
		if s.InExtent(pos) {
			gap := s.PointGap(pos) - b.Radius
			if gap <= margin {
				m.Points = append(m.Points, Point{Pos: pos.Sub(s.Normal.Mul(b.Radius)), Depth: -gap, Vertex: -1})
			}
			return
		}
		// Rounding the end of a bounded plane.
		e := s.Endpoint(pos.Sub(s.Point).Dot(s.Tangent))
		n, d := geom.Unit(pos.Sub(e))
		if d-b.Radius <= margin && d > 0 {
			m.Normal = n
			m.Points = append(m.Points, Point{Pos: e, Depth: b.Radius - d, Vertex: -1})
		}
		return
	}

	for k, v := range reg.Vertices(x, m.Pair.A) {
		if !s.InExtent(v) {
			continue
		}
		if gap := s.PointGap(v); gap <= margin {
			m.Points = append(m.Points, Point{Pos: v, Depth: -gap, Vertex: k})
		}
	}
}

func collideBodies(reg *world.Registry, x dynamo.State, m *Manifold, margin float64) {
	i, j := m.Pair.A, m.Pair.B
	a, b := &reg.Bodies[i], &reg.Bodies[j]
	pa, pb := reg.Pos(x, i), reg.Pos(x, j)

	switch {
	case a.IsCircle() && b.IsCircle():
		n, d := geom.Unit(pa.Sub(pb))
		if d == 0 {
			n = geom.V(0, 1)
		}
		if gap := d - a.Radius - b.Radius; gap <= margin {
			m.Normal = n
			m.Points = append(m.Points, Point{Pos: pb.Add(n.Mul(b.Radius - 0.5*(-gap))), Depth: -gap, Vertex: -1})
		}
	case a.IsCircle():
		circlePolygon(pa, a.Radius, reg.Vertices(x, j), margin, 1, m)
	case b.IsCircle():
		circlePolygon(pb, b.Radius, reg.Vertices(x, i), margin, -1, m)
	default:
		collidePolygons(reg.Vertices(x, i), reg.Vertices(x, j), margin, m)
	}
}

// circlePolygon collides a circle with a polygon. sign is +1 when the circle
// is body A, -1 when the polygon is.
func circlePolygon(c geom.Vec, radius float64, vs []geom.Vec, margin, sign float64, m *Manifold) {
	d, closest := geom.PointPolygon(c, vs)
	if d-radius > margin {
		return
	}
	n, l := geom.Unit(c.Sub(closest))
	if l == 0 {
		return
	}
	if d < 0 {
		n = n.Mul(-1)
	}
	m.Normal = n.Mul(sign)
	m.Points = append(m.Points, Point{Pos: closest, Depth: radius - d, Vertex: -1})
}

// collidePolygons clips the incident edge against the reference face, in
// the manner of box2d's b2CollidePolygons.
func collidePolygons(va, vb []geom.Vec, margin float64, m *Manifold) {
	sepA, edgeA := geom.FaceSeparation(va, vb)
	if sepA > margin {
		return
	}
	sepB, edgeB := geom.FaceSeparation(vb, va)
	if sepB > margin {
		return
	}

	ref, inc, edge, flip := va, vb, edgeA, false
	if sepB > sepA+1e-9 {
		ref, inc, edge, flip = vb, va, edgeB, true
	}

	n := geom.EdgeNormal(ref, edge)
	incident, best := 0, math.Inf(1)
	for k := range inc {
		if d := n.Dot(geom.EdgeNormal(inc, k)); d < best {
			best, incident = d, k
		}
	}
	seg := []geom.Vec{inc[incident], inc[(incident+1)%len(inc)]}

	v1, v2 := ref[edge], ref[(edge+1)%len(ref)]
	t, _ := geom.Unit(v2.Sub(v1))
	seg = clip(seg, t.Mul(-1), -t.Dot(v1))
	if len(seg) < 2 {
		return
	}
	seg = clip(seg, t, t.Dot(v2))
	if len(seg) < 2 {
		return
	}

	front := n.Dot(v1)
	// Normal runs from B to A: from the reference face when B is the reference.
	m.Normal = n.Mul(-1)
	if flip {
		m.Normal = n
	}
	for _, p := range seg {
		if sep := n.Dot(p) - front; sep <= margin {
			m.Points = append(m.Points, Point{Pos: p, Depth: -sep, Vertex: -1})
		}
	}
}

// clip keeps the part of segment in with normal·p <= offset.
func clip(in []geom.Vec, normal geom.Vec, offset float64) []geom.Vec {
	d0 := normal.Dot(in[0]) - offset
	d1 := normal.Dot(in[1]) - offset
	var out []geom.Vec
	if d0 <= 0 {
		out = append(out, in[0])
	}
	if d1 <= 0 {
		out = append(out, in[1])
	}
	if d0*d1 < 0 {
		u := d0 / (d0 - d1)
		out = append(out, in[0].Add(in[1].Sub(in[0]).Mul(u)))
	}
	return out
}

// Dedup merges points within radius of each other, keeping the deeper one.
func Dedup(ps []Point, radius float64) []Point {
	if radius <= 0 || len(ps) < 2 {
		return ps
	}
	out := ps[:0:0]
	for _, p := range ps {
		merged := false
		for k := range out {
			if out[k].Pos.Sub(p.Pos).Len() < radius {
				if p.Depth > out[k].Depth {
					out[k] = p
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, p)
		}
	}
	return out
}
