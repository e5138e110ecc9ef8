package validate

import (
	"fmt"
	"math"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/geom"
)

const (
	unitTol  = 1e-9
	planeTol = 1e-6
)

func checkGeometry(c *contract.Contract, col *collector) {
	for i := range c.Surfaces {
		checkSurface(&c.Surfaces[i], fmt.Sprintf("surfaces[%d]", i), col)
	}
	for i := range c.Bodies {
		b := &c.Bodies[i]
		if b.Shape.Kind == contract.ShapePolygon {
			checkPolygon(b, fmt.Sprintf("bodies[%d].shape.vertices", i), col)
		}
	}
	for i := range c.Constraints.Springs {
		sp := c.Constraints.Springs[i]
		if sp.Stiffness < 0 || sp.Damping < 0 || sp.RestLength < 0 {
			col.errorf(CodeParamRange, fmt.Sprintf("constraints.springs[%d]", i),
				"stiffness, damping and rest_length must be non-negative", "spring %q has a negative parameter", sp.ID)
		}
	}
}

func checkSurface(s *contract.Surface, path string, col *collector) {
	var n geom.Vec
	if s.Angle != nil {
		n = geom.NormalFromAngle(*s.Angle)
		s.Normal = contract.FromV(n)
		s.Angle = nil
	} else {
		u, l := geom.Unit(s.Normal.V())
		switch {
		case l == 0 || math.IsNaN(l):
			col.errorf(CodeNormalZero, path+".normal", "give a non-zero normal or an incline angle", "zero-length normal")
			return
		case math.Abs(l-1) > unitTol:
			col.warnf(CodeNormalNotUnit, path+".normal", "", "normal length %g normalized to 1", l)
			s.Normal = contract.FromV(u)
		}
		n = u
	}

	if s.Bounds == nil {
		return
	}
	p0 := s.Point.V()
	a, b := s.Bounds.Start.V(), s.Bounds.End.V()
	if a.Sub(b).Len() < planeTol {
		col.errorf(CodeBoundsDegenerate, path+".bounds", "bounded planes need two distinct endpoints", "start and end coincide")
		return
	}
	da, db := a.Sub(p0).Dot(n), b.Sub(p0).Dot(n)
	if math.Abs(da) > planeTol || math.Abs(db) > planeTol {
		col.warnf(CodeBoundsOffPlane, path+".bounds", "", "endpoints projected onto the plane")
		a = a.Sub(n.Mul(da))
		b = b.Sub(n.Mul(db))
		s.Bounds.Start, s.Bounds.End = contract.FromV(a), contract.FromV(b)
	}
	// Endpoints run along the tangent, the normal rotated clockwise.
	tangent := geom.V(n[1], -n[0])
	if b.Sub(a).Dot(tangent) < 0 {
		col.warnf(CodeBoundsReversed, path+".bounds", "", "endpoints reordered along the surface tangent")
		s.Bounds.Start, s.Bounds.End = s.Bounds.End, s.Bounds.Start
	}
}

func checkPolygon(b *contract.Body, path string, col *collector) {
	vs := make([]geom.Vec, len(b.Shape.Vertices))
	for i, v := range b.Shape.Vertices {
		vs[i] = v.V()
	}
	if geom.SelfIntersects(vs) {
		col.errorf(CodePolySelfIntersect, path, "reorder vertices so edges do not cross", "polygon %q self-intersects", b.ID)
		return
	}
	area := geom.SignedArea(vs)
	if math.Abs(area) < 1e-12 {
		col.errorf(CodePolyDegenerate, path, "polygons need a non-zero area", "polygon %q has zero area", b.ID)
		return
	}
	if area < 0 {
		col.warnf(CodePolyClockwise, path, "", "polygon %q re-wound counter-clockwise", b.ID)
		vs = geom.Reverse(vs)
	}
	if !geom.IsConvex(vs) {
		col.errorf(CodePolyConcave, path, "split concave shapes into convex bodies", "polygon %q is not convex", b.ID)
		return
	}
	_, centroid, _ := geom.MassProperties(vs, 1)
	if centroid.Len() > planeTol {
		col.warnf(CodePolyRecentered, path, "", "polygon %q recentered on its centroid", b.ID)
		vs = geom.Recenter(vs, centroid)
		p := b.Initial.Position.V().Add(geom.Rotate(centroid, b.Initial.Angle))
		b.Initial.Position = contract.FromV(p)
	}
	for i, v := range vs {
		b.Shape.Vertices[i] = contract.FromV(v)
	}
}

func checkMaterials(c *contract.Contract, col *collector) {
	for i := range c.Bodies {
		b := &c.Bodies[i]
		path := fmt.Sprintf("bodies[%d]", i)
		checkMaterial(b.Material, path+".material", col)

		if !(b.Mass > 0) {
			col.errorf(CodeMassNonPositive, path+".mass", "mass must be positive", "body %q mass %g", b.ID, b.Mass)
			continue
		}
		if b.FixedRotation {
			continue
		}
		switch {
		case b.Inertia < 0:
			col.errorf(CodeInertiaNonPositive, path+".inertia", "inertia must be positive, or 0 to derive it from the shape",
				"body %q inertia %g", b.ID, b.Inertia)
		case b.Inertia == 0:
			b.Inertia = shapeInertia(b)
			if !(b.Inertia > 0) {
				col.errorf(CodeInertiaNonPositive, path+".inertia", "set inertia explicitly or mark fixed_rotation",
					"could not derive inertia for body %q", b.ID)
			}
		}
	}
	for i := range c.Surfaces {
		checkMaterial(c.Surfaces[i].Material, fmt.Sprintf("surfaces[%d].material", i), col)
	}
	for i, f := range c.Forces {
		if f.Kind != contract.ForceConstant && f.Coefficient < 0 {
			col.errorf(CodeParamRange, fmt.Sprintf("forces[%d].coefficient", i), "drag coefficients must be non-negative",
				"force %q coefficient %g", f.ID, f.Coefficient)
		}
	}

	t := c.Tolerances
	for _, tv := range []struct {
		name string
		v    float64
	}{
		{"event_time", t.EventTime}, {"energy_drift_rel", t.EnergyDriftRel}, {"momentum_drift_rel", t.MomentumDriftRel},
		{"slop", t.Slop}, {"velocity_epsilon", t.VelocityEpsilon}, {"resting_velocity", t.RestingVelocity},
		{"integrator_tol", t.IntegratorTol}, {"root_time_tol", t.RootTimeTol}, {"ratio_rel", t.RatioRel},
	} {
		if !(tv.v > 0) {
			col.errorf(CodeParamRange, "tolerances."+tv.name, "tolerances must be positive", "%s = %g", tv.name, tv.v)
		}
	}
	if t.R2Min <= 0 || t.R2Min > 1 {
		col.errorf(CodeParamRange, "tolerances.r2_min", "r2_min lies in (0, 1]", "r2_min = %g", t.R2Min)
	}
	sc := c.Scoring
	if sc.Validity < 0 || sc.Consistency < 0 || sc.Stability < 0 || sc.Validity+sc.Consistency+sc.Stability == 0 {
		col.errorf(CodeParamRange, "scoring", "weights are non-negative and not all zero", "invalid scoring weights")
	}
}

func checkMaterial(m *contract.Material, path string, col *collector) {
	if m == nil {
		return
	}
	if m.Restitution < 0 || m.Restitution > 1 {
		col.errorf(CodeRestitutionRange, path+".restitution", "restitution lies in [0, 1]", "restitution %g", m.Restitution)
	}
	if m.KineticFriction < 0 || m.StaticFriction < m.KineticFriction {
		col.errorf(CodeFrictionOrder, path, "require static_friction >= kinetic_friction >= 0",
			"static %g, kinetic %g", m.StaticFriction, m.KineticFriction)
	}
}

func shapeInertia(b *contract.Body) float64 {
	switch b.Shape.Kind {
	case contract.ShapeCircle:
		return geom.CircleInertia(b.Mass, b.Shape.Radius)
	case contract.ShapeBox:
		w, h := b.Shape.Width, b.Shape.Height
		return b.Mass * (w*w + h*h) / 12
	case contract.ShapePolygon:
		vs := make([]geom.Vec, len(b.Shape.Vertices))
		for i, v := range b.Shape.Vertices {
			vs[i] = v.V()
		}
		_, _, inertia := geom.MassProperties(vs, b.Mass)
		return inertia
	}
	return 0
}
