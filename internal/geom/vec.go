// Package geom holds the 2D geometry used by the world model and the contact
// resolver. Vectors are mgl64.Vec2 values; angles are radians, counter-clockwise.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Vec = mgl64.Vec2

func V(x, y float64) Vec { return Vec{x, y} }

// Cross is the z component of the 3D cross product of a and b.
func Cross(a, b Vec) float64 { return a[0]*b[1] - a[1]*b[0] }

// CrossSV returns s × v for a scalar angular quantity s (e.g. ω × r).
func CrossSV(s float64, v Vec) Vec { return Vec{-s * v[1], s * v[0]} }

// Perp rotates v by +90°.
func Perp(v Vec) Vec { return Vec{-v[1], v[0]} }

func Rotate(v Vec, angle float64) Vec {
	if angle == 0 {
		return v
	}
	return mgl64.Rotate2D(angle).Mul2x1(v)
}

// ToWorld maps a body-local point into world coordinates.
func ToWorld(local, pos Vec, angle float64) Vec {
	return pos.Add(Rotate(local, angle))
}

// Unit returns v normalized and its original length. A zero vector is
// returned unchanged with length 0.
func Unit(v Vec) (Vec, float64) {
	l := v.Len()
	if l == 0 {
		return v, 0
	}
	return v.Mul(1 / l), l
}

// ClosestOnSegment returns the point of segment ab closest to p.
func ClosestOnSegment(p, a, b Vec) Vec {
	ab := b.Sub(a)
	den := ab.Dot(ab)
	if den == 0 {
		return a
	}
	u := p.Sub(a).Dot(ab) / den
	u = math.Max(0, math.Min(1, u))
	return a.Add(ab.Mul(u))
}

// NormalFromAngle returns the upward normal of a line inclined by angle
// radians from the +x axis.
func NormalFromAngle(angle float64) Vec {
	return Vec{-math.Sin(angle), math.Cos(angle)}
}
