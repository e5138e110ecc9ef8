package contract

// Clone returns a deep copy of c. Nothing in the copy aliases c.
func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	out := *c
	out.sealed = false
	out.World.Constants = c.World.Constants.Clone()

	out.Bodies = make([]Body, len(c.Bodies))
	for i, b := range c.Bodies {
		b.Shape.Vertices = cloneSlice(b.Shape.Vertices)
		b.Material = clonePtr(b.Material)
		b.Contacts = cloneSlice(b.Contacts)
		out.Bodies[i] = b
	}
	if c.Bodies == nil {
		out.Bodies = nil
	}

	out.Surfaces = cloneSlice(c.Surfaces)
	for i := range out.Surfaces {
		s := &out.Surfaces[i]
		s.Angle = clonePtr(s.Angle)
		s.Bounds = clonePtr(s.Bounds)
		s.Material = clonePtr(s.Material)
	}

	out.Constraints.Springs = cloneSlice(c.Constraints.Springs)
	out.Forces = cloneSlice(c.Forces)

	out.Phases = cloneSlice(c.Phases)
	for i := range out.Phases {
		p := &out.Phases[i]
		p.Activate = cloneSlice(p.Activate)
		p.Deactivate = cloneSlice(p.Deactivate)
		p.Transitions = cloneSlice(p.Transitions)
		for j := range p.Transitions {
			p.Transitions[j].Guard = cloneGuard(p.Transitions[j].Guard)
		}
	}

	out.ExpectedEvents = cloneSlice(c.ExpectedEvents)
	for i := range out.ExpectedEvents {
		e := &out.ExpectedEvents[i]
		e.Participants = cloneSlice(e.Participants)
		e.Window = cloneSlice(e.Window)
		e.Guard = cloneGuard(e.Guard)
	}

	out.AcceptanceTests = cloneSlice(c.AcceptanceTests)
	for i := range out.AcceptanceTests {
		a := &out.AcceptanceTests[i]
		a.Window = cloneSlice(a.Window)
		a.Signal = clonePtr(a.Signal)
		if a.Quantities != nil {
			q := make(map[string]Measure, len(a.Quantities))
			for k, m := range a.Quantities {
				m.Time = clonePtr(m.Time)
				q[k] = m
			}
			a.Quantities = q
		}
	}
	return &out
}

func cloneGuard(g *GuardSpec) *GuardSpec {
	if g == nil {
		return nil
	}
	out := *g
	out.Point = clonePtr(g.Point)
	return &out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
