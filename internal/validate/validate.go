// Package validate implements the Pre-Sim Gate: structural, dimensional,
// geometric, material, contact, phase and intent checks over a raw Contract.
package validate

import (
	"fmt"

	"github.com/san-kum/phystrace/internal/contract"
)

// Validate runs every check in order and accumulates all issues. Only a
// structural failure stops the remaining checks. The input is never mutated;
// a sealed, SI-normalized copy is returned in Result.Normalized on success.
func Validate(c *contract.Contract) Result {
	col := &collector{}
	if c == nil {
		col.errorf(CodeSchemaMissing, "", "provide a contract", "contract is nil")
		return col.result(nil)
	}
	n := c.Clone()

	if !checkStructure(n, col) {
		return col.result(nil)
	}
	checkSimulation(n, col)
	normalizeUnits(n, col)
	normalizeCoordinates(n, col)
	n.FillDefaults()
	checkGeometry(n, col)
	checkMaterials(n, col)
	checkContacts(n, col)
	checkPhases(n, col)
	checkIntent(n, col)

	return col.result(n)
}

func (c *collector) result(n *contract.Contract) Result {
	r := Result{
		OK:       len(c.errors) == 0,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
	if r.OK && n != nil {
		n.Seal()
		r.Normalized = n
	}
	return r
}

// checkStructure covers the schema checks whose failure would leave later
// checks without a usable shape to inspect.
func checkStructure(c *contract.Contract, col *collector) bool {
	before := len(col.errors)

	if len(c.Bodies) == 0 {
		col.errorf(CodeSchemaMissing, "bodies", "declare at least one body", "no bodies declared")
	}

	seen := make(map[string]string)
	claim := func(id, path string) {
		if id == "" {
			col.errorf(CodeSchemaMissing, path+".id", "give every entity a unique id", "missing id")
			return
		}
		if prev, ok := seen[id]; ok {
			col.errorf(CodeDuplicateID, path+".id", "ids are shared by bodies and surfaces and must be unique",
				"id %q already used at %s", id, prev)
			return
		}
		seen[id] = path
	}

	for i, b := range c.Bodies {
		path := fmt.Sprintf("bodies[%d]", i)
		claim(b.ID, path)
		checkShape(b.Shape, path+".shape", col)
	}
	for i, s := range c.Surfaces {
		claim(s.ID, fmt.Sprintf("surfaces[%d]", i))
	}

	phases := make(map[string]bool)
	for i, p := range c.Phases {
		path := fmt.Sprintf("phases[%d]", i)
		if p.ID == "" {
			col.errorf(CodeSchemaMissing, path+".id", "name every phase", "missing phase id")
			continue
		}
		if phases[p.ID] {
			col.errorf(CodeDuplicateID, path+".id", "phase ids must be unique", "phase %q declared twice", p.ID)
		}
		phases[p.ID] = true
	}

	ids := make(map[string]bool)
	for i, f := range c.Forces {
		path := fmt.Sprintf("forces[%d]", i)
		switch f.Kind {
		case contract.ForceConstant, contract.ForceLinearDrag, contract.ForceQuadraticDrag:
		default:
			col.errorf(CodeSchemaMissing, path+".kind", "use constant, linear_drag or quadratic_drag", "unknown force kind %q", f.Kind)
		}
		if f.ID == "" || ids[f.ID] {
			col.errorf(CodeDuplicateID, path+".id", "forces and springs need unique ids", "missing or duplicate id %q", f.ID)
		}
		ids[f.ID] = true
	}
	for i, s := range c.Constraints.Springs {
		if s.ID == "" || ids[s.ID] {
			col.errorf(CodeDuplicateID, fmt.Sprintf("constraints.springs[%d].id", i),
				"forces and springs need unique ids", "missing or duplicate id %q", s.ID)
		}
		ids[s.ID] = true
	}

	return len(col.errors) == before
}

func checkShape(s contract.Shape, path string, col *collector) {
	switch s.Kind {
	case contract.ShapeCircle:
		if s.Radius <= 0 {
			col.errorf(CodeShapeIncomplete, path+".radius", "circles need a positive radius", "radius %g", s.Radius)
		}
	case contract.ShapeBox:
		if s.Width <= 0 || s.Height <= 0 {
			col.errorf(CodeShapeIncomplete, path, "boxes need positive width and height",
				"box %gx%g", s.Width, s.Height)
		}
	case contract.ShapePolygon:
		if len(s.Vertices) < 3 {
			col.errorf(CodeShapeIncomplete, path+".vertices", "polygons need at least three vertices",
				"%d vertices", len(s.Vertices))
		}
	case "":
		col.errorf(CodeSchemaMissing, path+".kind", "set kind to circle, box or polygon", "missing shape kind")
	default:
		col.errorf(CodeShapeUnknown, path+".kind", "set kind to circle, box or polygon", "unknown shape kind %q", s.Kind)
	}
}

func checkSimulation(c *contract.Contract, col *collector) {
	s := c.Simulation
	if s.TEnd <= 0 {
		col.errorf(CodeSimulation, "simulation.t_end", "set a positive end time", "t_end %g", s.TEnd)
	}
	switch s.Integrator {
	case "", contract.IntegratorRK45, contract.IntegratorRK4, contract.IntegratorVerlet, contract.IntegratorEuler:
	default:
		col.errorf(CodeSimulation, "simulation.integrator", "use rk45, rk4, verlet or euler", "unknown integrator %q", s.Integrator)
	}
	if s.Dt < 0 || s.HMin < 0 || s.HMax < 0 {
		col.errorf(CodeSimulation, "simulation", "step sizes must be non-negative", "negative step size")
	}
	if s.HMin > 0 && s.HMax > 0 && s.HMin > s.HMax {
		col.errorf(CodeSimulation, "simulation.h_min", "h_min must not exceed h_max", "h_min %g > h_max %g", s.HMin, s.HMax)
	}
	if s.MaxSteps < 0 {
		col.errorf(CodeSimulation, "simulation.max_steps", "use 0 for the default cap", "negative max_steps")
	}
}
