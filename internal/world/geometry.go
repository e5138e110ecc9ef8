package world

import (
	"math"

	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/geom"
)

// PointGap is the signed distance of p above surface s. Outside the extent
// of a bounded plane it is the distance to the nearest endpoint.
func (s *Surface) PointGap(p geom.Vec) float64 {
	d := p.Sub(s.Point)
	if s.Bounded {
		u := d.Dot(s.Tangent)
		if u < s.Start || u > s.End {
			return p.Sub(s.Endpoint(u)).Len()
		}
	}
	return d.Dot(s.Normal)
}

// Endpoint returns the bounded-plane endpoint nearest to tangent coordinate u.
func (s *Surface) Endpoint(u float64) geom.Vec {
	e := s.Start
	if u > s.End || (u >= s.Start && u-s.Start > s.End-u) {
		e = s.End
	}
	return s.Point.Add(s.Tangent.Mul(e))
}

// InExtent reports whether p projects inside the surface's bounds.
func (s *Surface) InExtent(p geom.Vec) bool {
	if !s.Bounded {
		return true
	}
	u := p.Sub(s.Point).Dot(s.Tangent)
	return u >= s.Start && u <= s.End
}

// SurfaceGap is the signed distance between body i and surface si together
// with the index of the closest vertex (-1 for circles). skip excludes
// vertices that already rest on the surface.
func (r *Registry) SurfaceGap(x dynamo.State, i, si int, skip func(v int) bool) (float64, int) {
	b := &r.Bodies[i]
	s := &r.Surfaces[si]
	pos := r.Pos(x, i)

	// Broad phase: the bounding circle is clear of the plane.
	if c := s.PointGap(pos); c > b.Bound+r.Tol.Slop*10 && !s.Bounded {
		return c - b.Bound, -1
	}

	if b.IsCircle() {
		return s.PointGap(pos) - b.Radius, -1
	}
	best, idx := math.Inf(1), -1
	angle := r.Angle(x, i)
	for k, v := range b.Local {
		if skip != nil && skip(k) {
			continue
		}
		if g := s.PointGap(geom.ToWorld(v, pos, angle)); g < best {
			best, idx = g, k
		}
	}
	return best, idx
}

// BodyGap is the signed separation of bodies i and j (negative when they
// overlap). For polygon pairs it is the SAT face separation.
func (r *Registry) BodyGap(x dynamo.State, i, j int) float64 {
	a, b := &r.Bodies[i], &r.Bodies[j]
	pa, pb := r.Pos(x, i), r.Pos(x, j)
	switch {
	case a.IsCircle() && b.IsCircle():
		return pb.Sub(pa).Len() - a.Radius - b.Radius
	case a.IsCircle():
		d, _ := geom.PointPolygon(pa, r.Vertices(x, j))
		return d - a.Radius
	case b.IsCircle():
		d, _ := geom.PointPolygon(pb, r.Vertices(x, i))
		return d - b.Radius
	}
	va, vb := r.Vertices(x, i), r.Vertices(x, j)
	s1, _ := geom.FaceSeparation(va, vb)
	s2, _ := geom.FaceSeparation(vb, va)
	return math.Max(s1, s2)
}

// Gap is the signed separation of a contact pair, ignoring vertices that
// already rest on a surface.
func (r *Registry) Gap(x dynamo.State, p Pair) float64 {
	if !p.Surface {
		return r.BodyGap(x, p.A, p.B)
	}
	rest := r.RestOn(p.A, p.B)
	if rest >= 0 {
		rs := &r.Rests[rest]
		if rs.Kind == RestFace || rs.Vertex < 0 {
			return math.Inf(1)
		}
		g, _ := r.SurfaceGap(x, p.A, p.B, func(v int) bool { return v == rs.Vertex })
		return g
	}
	g, _ := r.SurfaceGap(x, p.A, p.B, nil)
	return g
}

// ApproachSpeed is the relative normal velocity of pair p along its contact
// normal, negative when closing.
func (r *Registry) ApproachSpeed(x dynamo.State, p Pair) float64 {
	va := r.Vel(x, p.A)
	if p.Surface {
		return va.Dot(r.Surfaces[p.B].Normal)
	}
	n, _ := geom.Unit(r.Pos(x, p.A).Sub(r.Pos(x, p.B)))
	return va.Sub(r.Vel(x, p.B)).Dot(n)
}
