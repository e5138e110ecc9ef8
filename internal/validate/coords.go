package validate

import (
	"slices"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/geom"
)

// normalizeCoordinates mirrors a y_down contract into the y_up frame every
// later stage works in. It runs after unit scaling, so angles are radians.
func normalizeCoordinates(c *contract.Contract, col *collector) {
	switch c.World.Coordinates {
	case "", contract.CoordinatesYUp:
		c.World.Coordinates = contract.CoordinatesYUp
		return
	case contract.CoordinatesYDown:
	default:
		col.errorf(CodeSchemaCoordinates, "world.coordinates", "use y_up or y_down",
			"unknown coordinate convention %q", c.World.Coordinates)
		return
	}

	flip := func(v *contract.Vec2) { v[1] = -v[1] }

	flip(&c.World.Gravity)
	for i := range c.Bodies {
		b := &c.Bodies[i]
		flip(&b.Initial.Position)
		flip(&b.Initial.Velocity)
		b.Initial.Angle = -b.Initial.Angle
		b.Initial.AngularVelocity = -b.Initial.AngularVelocity
		for j := range b.Shape.Vertices {
			flip(&b.Shape.Vertices[j])
		}
		// Mirroring reverses the winding.
		slices.Reverse(b.Shape.Vertices)
	}
	for i := range c.Surfaces {
		s := &c.Surfaces[i]
		if s.Angle != nil {
			s.Normal = contract.FromV(geom.NormalFromAngle(*s.Angle))
			s.Angle = nil
		}
		flip(&s.Point)
		flip(&s.Normal)
		if s.Bounds != nil {
			flip(&s.Bounds.Start)
			flip(&s.Bounds.End)
			// The surface tangent turns around with the mirror.
			s.Bounds.Start, s.Bounds.End = s.Bounds.End, s.Bounds.Start
		}
	}
	for i := range c.Constraints.Springs {
		flip(&c.Constraints.Springs[i].AnchorA)
		flip(&c.Constraints.Springs[i].AnchorB)
	}
	for i := range c.Forces {
		flip(&c.Forces[i].Vector)
	}
	for i := range c.Phases {
		for j := range c.Phases[i].Transitions {
			mirrorGuard(c.Phases[i].Transitions[j].Guard)
		}
	}
	for i := range c.ExpectedEvents {
		mirrorGuard(c.ExpectedEvents[i].Guard)
	}
	c.World.Coordinates = contract.CoordinatesYUp
}

// mirrorGuard rewrites a guard so it crosses zero at the same instant in the
// mirrored frame. Guards on a mirrored coordinate change sign, which negates
// the threshold and swaps the crossing direction.
func mirrorGuard(g *contract.GuardSpec) {
	if g == nil {
		return
	}
	if g.Point != nil {
		p := *g.Point
		p[1] = -p[1]
		g.Point = &p
	}
	switch g.Kind {
	case contract.GuardPosition, contract.GuardVelocityZero:
		if g.Axis == "x" {
			return
		}
		g.Value = -g.Value
	case contract.GuardTangentialVelocity:
	default:
		return
	}
	switch g.Direction {
	case contract.DirectionFalling:
		g.Direction = contract.DirectionRising
	case contract.DirectionRising:
		g.Direction = contract.DirectionFalling
	}
}
