package validate

import "github.com/san-kum/phystrace/internal/contract"

func normalizeUnits(c *contract.Contract, col *collector) {
	s, errs := contract.ScaleFor(c.Units)
	for _, err := range errs {
		col.errorf(CodeUnitUnknown, "units", "length: m|cm|mm|km|ft|in, mass: kg|g, time: s|ms, angle: rad|deg", "%v", err)
	}
	if len(errs) > 0 {
		return
	}
	c.Units = contract.SI
	if s.IsIdentity() {
		return
	}

	vec := func(v *contract.Vec2, f float64) {
		v[0] *= f
		v[1] *= f
	}

	vec(&c.World.Gravity, s.Acceleration())

	c.Simulation.TEnd *= s.Time
	c.Simulation.Dt *= s.Time
	c.Simulation.HMin *= s.Time
	c.Simulation.HMax *= s.Time

	for i := range c.Bodies {
		b := &c.Bodies[i]
		b.Shape.Radius *= s.Length
		b.Shape.Width *= s.Length
		b.Shape.Height *= s.Length
		for j := range b.Shape.Vertices {
			vec(&b.Shape.Vertices[j], s.Length)
		}
		b.Mass *= s.Mass
		b.Inertia *= s.Inertia()
		vec(&b.Initial.Position, s.Length)
		b.Initial.Angle *= s.Angle
		vec(&b.Initial.Velocity, s.Velocity())
		b.Initial.AngularVelocity *= s.AngularRate()
	}

	for i := range c.Surfaces {
		sf := &c.Surfaces[i]
		vec(&sf.Point, s.Length)
		if sf.Angle != nil {
			a := *sf.Angle * s.Angle
			sf.Angle = &a
		}
		if sf.Bounds != nil {
			vec(&sf.Bounds.Start, s.Length)
			vec(&sf.Bounds.End, s.Length)
		}
	}

	for i := range c.Constraints.Springs {
		sp := &c.Constraints.Springs[i]
		vec(&sp.AnchorA, s.Length)
		vec(&sp.AnchorB, s.Length)
		sp.Stiffness *= s.Stiffness()
		sp.Damping *= s.Damping()
		sp.RestLength *= s.Length
	}

	for i := range c.Forces {
		f := &c.Forces[i]
		switch f.Kind {
		case contract.ForceConstant:
			vec(&f.Vector, s.Force())
		case contract.ForceLinearDrag:
			f.Coefficient *= s.Damping()
		case contract.ForceQuadraticDrag:
			f.Coefficient *= s.Mass / s.Length
		}
	}

	for i := range c.Phases {
		for j := range c.Phases[i].Transitions {
			scaleGuard(c.Phases[i].Transitions[j].Guard, s)
		}
	}

	for i := range c.ExpectedEvents {
		e := &c.ExpectedEvents[i]
		for j := range e.Window {
			e.Window[j] *= s.Time
		}
		scaleGuard(e.Guard, s)
	}

	for i := range c.AcceptanceTests {
		a := &c.AcceptanceTests[i]
		if a.Kind == contract.TestEventTime {
			a.Min *= s.Time
			a.Max *= s.Time
		}
		for j := range a.Window {
			a.Window[j] *= s.Time
		}
		for k, m := range a.Quantities {
			if m.Time != nil {
				t := *m.Time * s.Time
				m.Time = &t
				a.Quantities[k] = m
			}
		}
	}

	tol := &c.Tolerances
	tol.EventTime *= s.Time
	tol.RootTimeTol *= s.Time
	tol.Slop *= s.Length
	tol.VelocityEpsilon *= s.Velocity()
	tol.RestingVelocity *= s.Velocity()
}

func scaleGuard(g *contract.GuardSpec, s contract.Scale) {
	if g == nil {
		return
	}
	switch g.Kind {
	case contract.GuardPosition:
		if g.Axis == "angle" {
			g.Value *= s.Angle
		} else {
			g.Value *= s.Length
		}
	case contract.GuardDistance:
		g.Value *= s.Length
	case contract.GuardVelocityZero, contract.GuardTangentialVelocity:
		if g.Axis == "omega" {
			g.Value *= s.AngularRate()
		} else {
			g.Value *= s.Velocity()
		}
	case contract.GuardTime:
		g.Value *= s.Time
	}
	if g.Point != nil {
		p := contract.Vec2{g.Point[0] * s.Length, g.Point[1] * s.Length}
		g.Point = &p
	}
}

