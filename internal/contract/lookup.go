package contract

func (c *Contract) BodyIndex(id string) int {
	for i := range c.Bodies {
		if c.Bodies[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Contract) SurfaceIndex(id string) int {
	for i := range c.Surfaces {
		if c.Surfaces[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Contract) PhaseIndex(id string) int {
	for i := range c.Phases {
		if c.Phases[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Contract) ExpectedEvent(name string) (ExpectedEvent, bool) {
	for _, e := range c.ExpectedEvents {
		if e.Name == name {
			return e, true
		}
	}
	return ExpectedEvent{}, false
}

// HasEntity reports whether id names a body or a surface.
func (c *Contract) HasEntity(id string) bool {
	return c.BodyIndex(id) >= 0 || c.SurfaceIndex(id) >= 0
}

// Activatable reports whether id names a force, a spring, or a surface whose
// friction a phase can switch.
func (c *Contract) Activatable(id string) bool {
	if c.SurfaceIndex(id) >= 0 {
		return true
	}
	for _, f := range c.Forces {
		if f.ID == id {
			return true
		}
	}
	for _, s := range c.Constraints.Springs {
		if s.ID == id {
			return true
		}
	}
	return false
}
