package world

import "github.com/san-kum/phystrace/internal/contract"

// Activation records which forces, springs and surface frictions are live.
// Only the engine mutates it, when a phase is entered.
type Activation struct {
	forces   []bool
	springs  []bool
	friction []bool
	r        *Registry
}

func newActivation(c *contract.Contract, r *Registry) *Activation {
	a := &Activation{
		forces:   make([]bool, len(c.Forces)),
		springs:  make([]bool, len(c.Constraints.Springs)),
		friction: make([]bool, len(c.Surfaces)),
		r:        r,
	}
	for i, f := range c.Forces {
		a.forces[i] = !f.Disabled
	}
	for i, s := range c.Constraints.Springs {
		a.springs[i] = !s.Disabled
	}
	for i := range a.friction {
		a.friction[i] = true
	}
	return a
}

// Set switches the force, spring or surface friction named id. Unknown ids
// report false.
func (a *Activation) Set(id string, on bool) bool {
	if i, ok := a.r.forceIdx[id]; ok {
		a.forces[i] = on
		return true
	}
	if i, ok := a.r.springIdx[id]; ok {
		a.springs[i] = on
		return true
	}
	if i, ok := a.r.surfaceIdx[id]; ok {
		a.friction[i] = on
		return true
	}
	return false
}

func (a *Activation) Force(i int) bool    { return a.forces[i] }
func (a *Activation) Spring(i int) bool   { return a.springs[i] }
func (a *Activation) Friction(i int) bool { return a.friction[i] }

// IDs lists the active entries, forces then springs then frictional surfaces.
func (a *Activation) IDs() []string {
	var ids []string
	for i, on := range a.forces {
		if on {
			ids = append(ids, a.r.Forces[i].ID)
		}
	}
	for i, on := range a.springs {
		if on {
			ids = append(ids, a.r.Springs[i].ID)
		}
	}
	for i, on := range a.friction {
		if on {
			ids = append(ids, a.r.Surfaces[i].ID)
		}
	}
	return ids
}
