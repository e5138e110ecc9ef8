package geom

import "math"

// BoxVertices returns the CCW corners of a w×h box centered on the origin.
func BoxVertices(w, h float64) []Vec {
	hw, hh := w/2, h/2
	return []Vec{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
}

// SignedArea is positive for counter-clockwise winding.
func SignedArea(vs []Vec) float64 {
	a := 0.0
	for i := range vs {
		j := (i + 1) % len(vs)
		a += Cross(vs[i], vs[j])
	}
	return a / 2
}

// MassProperties returns area, centroid and the polar moment of inertia about
// the centroid for a polygon of the given total mass.
func MassProperties(vs []Vec, mass float64) (area float64, centroid Vec, inertia float64) {
	// Triangle fan around the vertex average, as in box2d's ComputeMass.
	s := Vec{}
	for _, v := range vs {
		s = s.Add(v)
	}
	s = s.Mul(1 / float64(len(vs)))

	const inv3 = 1.0 / 3.0
	center := Vec{}
	I := 0.0
	for i := range vs {
		e1 := vs[i].Sub(s)
		e2 := vs[(i+1)%len(vs)].Sub(s)
		d := Cross(e1, e2)
		tri := 0.5 * d
		area += tri
		center = center.Add(e1.Add(e2).Mul(tri * inv3))

		intx2 := e1[0]*e1[0] + e2[0]*e1[0] + e2[0]*e2[0]
		inty2 := e1[1]*e1[1] + e2[1]*e1[1] + e2[1]*e2[1]
		I += (0.25 * inv3 * d) * (intx2 + inty2)
	}
	if area == 0 {
		return 0, s, 0
	}
	center = center.Mul(1 / area)
	density := mass / area
	inertia = density*I - mass*center.Dot(center)
	return math.Abs(area), center.Add(s), math.Abs(inertia)
}

func CircleInertia(mass, radius float64) float64 {
	return 0.5 * mass * radius * radius
}

// Recenter shifts vertices so the centroid sits on the origin.
func Recenter(vs []Vec, centroid Vec) []Vec {
	out := make([]Vec, len(vs))
	for i, v := range vs {
		out[i] = v.Sub(centroid)
	}
	return out
}

// Reverse returns the vertices in opposite winding order.
func Reverse(vs []Vec) []Vec {
	out := make([]Vec, len(vs))
	for i, v := range vs {
		out[len(vs)-1-i] = v
	}
	return out
}

// SegmentsIntersect reports whether closed segments p1p2 and q1q2 touch.
func SegmentsIntersect(p1, p2, q1, q2 Vec) bool {
	d1 := Cross(q2.Sub(q1), p1.Sub(q1))
	d2 := Cross(q2.Sub(q1), p2.Sub(q1))
	d3 := Cross(p2.Sub(p1), q1.Sub(p1))
	d4 := Cross(p2.Sub(p1), q2.Sub(p1))

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	onSeg := func(a, b, p Vec) bool {
		return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
			math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
	}
	switch {
	case d1 == 0 && onSeg(q1, q2, p1):
		return true
	case d2 == 0 && onSeg(q1, q2, p2):
		return true
	case d3 == 0 && onSeg(p1, p2, q1):
		return true
	case d4 == 0 && onSeg(p1, p2, q2):
		return true
	}
	return false
}

// SelfIntersects reports whether any two non-adjacent edges of the closed
// polygon cross.
func SelfIntersects(vs []Vec) bool {
	n := len(vs)
	for i := 0; i < n; i++ {
		a1, a2 := vs[i], vs[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if SegmentsIntersect(a1, a2, vs[j], vs[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}

// IsConvex reports whether a CCW polygon is convex.
func IsConvex(vs []Vec) bool {
	n := len(vs)
	for i := 0; i < n; i++ {
		a, b, c := vs[i], vs[(i+1)%n], vs[(i+2)%n]
		if Cross(b.Sub(a), c.Sub(b)) < 0 {
			return false
		}
	}
	return true
}

// EdgeNormal is the outward normal of edge i of a CCW polygon.
func EdgeNormal(vs []Vec, i int) Vec {
	e := vs[(i+1)%len(vs)].Sub(vs[i])
	n, _ := Unit(Vec{e[1], -e[0]})
	return n
}
