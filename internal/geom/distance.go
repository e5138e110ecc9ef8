package geom

import "math"

// FaceSeparation is the largest separation of b's vertices along any edge
// normal of a (both CCW). A positive value proves the polygons are disjoint;
// edge is the index of a's reference edge.
func FaceSeparation(a, b []Vec) (sep float64, edge int) {
	sep = math.Inf(-1)
	for i := range a {
		n := EdgeNormal(a, i)
		m := math.Inf(1)
		for _, v := range b {
			if d := n.Dot(v.Sub(a[i])); d < m {
				m = d
			}
		}
		if m > sep {
			sep, edge = m, i
		}
	}
	return sep, edge
}

// PointPolygon returns the signed distance from p to the boundary of the CCW
// convex polygon vs (negative inside) and the closest boundary point.
func PointPolygon(p Vec, vs []Vec) (float64, Vec) {
	inside := true
	best := math.Inf(1)
	var closest Vec
	for i := range vs {
		a, b := vs[i], vs[(i+1)%len(vs)]
		if EdgeNormal(vs, i).Dot(p.Sub(a)) > 0 {
			inside = false
		}
		c := ClosestOnSegment(p, a, b)
		if d := p.Sub(c).Len(); d < best {
			best, closest = d, c
		}
	}
	if inside {
		return -best, closest
	}
	return best, closest
}
