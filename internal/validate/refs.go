package validate

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"

	"github.com/san-kum/phystrace/internal/contract"
)

func checkContacts(c *contract.Contract, col *collector) {
	for i, b := range c.Bodies {
		for j, id := range b.Contacts {
			if id == b.ID || !c.HasEntity(id) {
				col.errorf(CodeContactUnknown, fmt.Sprintf("bodies[%d].contacts[%d]", i, j),
					"contacts list surface ids or other body ids", "body %q cannot contact %q", b.ID, id)
			}
		}
	}
}

func checkIntent(c *contract.Contract, col *collector) {
	for i, f := range c.Forces {
		if c.BodyIndex(f.Body) < 0 {
			col.errorf(CodeRefUnknown, fmt.Sprintf("forces[%d].body", i), "forces act on declared bodies", "unknown body %q", f.Body)
		}
	}
	for i, sp := range c.Constraints.Springs {
		path := fmt.Sprintf("constraints.springs[%d]", i)
		if c.BodyIndex(sp.A) < 0 {
			col.errorf(CodeRefUnknown, path+".a", "spring end a must be a body", "unknown body %q", sp.A)
		}
		if sp.B != "" && c.BodyIndex(sp.B) < 0 {
			col.errorf(CodeRefUnknown, path+".b", "spring end b is a body, or empty for a world anchor", "unknown body %q", sp.B)
		}
		if sp.A != "" && sp.A == sp.B {
			col.errorf(CodeRefUnknown, path, "a spring joins two different bodies", "spring %q ties %q to itself", sp.ID, sp.A)
		}
	}

	names := make(map[string]bool)
	for i, e := range c.ExpectedEvents {
		checkExpectedEvent(c, e, fmt.Sprintf("expected_events[%d]", i), names, col)
	}

	ids := make(map[string]bool)
	for i, a := range c.AcceptanceTests {
		path := fmt.Sprintf("acceptance_tests[%d]", i)
		if a.ID == "" || ids[a.ID] {
			col.errorf(CodeDuplicateID, path+".id", "acceptance tests need unique ids", "missing or duplicate id %q", a.ID)
		}
		ids[a.ID] = true
		if a.Weight < 0 {
			col.errorf(CodeParamRange, path+".weight", "weights are non-negative", "weight %g", a.Weight)
		}
		checkWindow(a.Window, path+".window", col)
		checkTest(c, a, path, col)
	}
}

func checkExpectedEvent(c *contract.Contract, e contract.ExpectedEvent, path string, names map[string]bool, col *collector) {
	if e.Name == "" || names[e.Name] {
		col.errorf(CodeDuplicateID, path+".name", "expected events need unique names", "missing or duplicate name %q", e.Name)
	}
	names[e.Name] = true
	checkWindow(e.Window, path+".window", col)
	if e.Order < 0 || e.Occurrence < 0 {
		col.errorf(CodeParamRange, path, "order and occurrence are non-negative", "negative order or occurrence")
	}

	switch e.Type {
	case contract.EventContact, contract.EventSeparation, contract.EventStick:
		if len(e.Participants) != 2 {
			col.errorf(CodeRefUnknown, path+".participants", "list a body and the surface or body it touches",
				"%s events have two participants", e.Type)
			return
		}
		if c.BodyIndex(e.Participants[0]) < 0 && c.BodyIndex(e.Participants[1]) < 0 {
			col.errorf(CodeRefUnknown, path+".participants", "at least one participant must be a body", "no body among %v", e.Participants)
		}
		for _, id := range e.Participants {
			if !c.HasEntity(id) {
				col.errorf(CodeRefUnknown, path+".participants", "participants are body or surface ids", "unknown id %q", id)
			}
		}
	case contract.EventVelocityZero:
		if len(e.Participants) != 1 || c.BodyIndex(e.Participants[0]) < 0 {
			col.errorf(CodeRefUnknown, path+".participants", "velocity_zero events name one body", "bad participants %v", e.Participants)
		}
		if !validAxis(e.Axis, "x", "y", "omega") {
			col.errorf(CodeGuardInvalid, path+".axis", "axis is x, y or omega", "unknown axis %q", e.Axis)
		}
	case contract.EventPhaseEnter:
		if len(e.Participants) != 1 || c.PhaseIndex(e.Participants[0]) < 0 {
			col.errorf(CodeRefUnknown, path+".participants", "phase_enter events name one phase", "bad participants %v", e.Participants)
		}
	case contract.EventGuard:
		if e.Guard == nil {
			col.errorf(CodeGuardInvalid, path+".guard", "guard events carry a guard block", "missing guard")
			return
		}
		checkGuard(c, e.Guard, path+".guard", col)
	default:
		col.errorf(CodeEventKind, path+".type", "use contact, separation, velocity_zero, stick, phase_enter or guard",
			"unknown event type %q", e.Type)
	}
}

func checkWindow(w []float64, path string, col *collector) {
	if len(w) == 0 {
		return
	}
	if len(w) != 2 || w[0] > w[1] {
		col.errorf(CodeParamRange, path, "windows are [start, end] with start <= end", "bad window %v", w)
	}
}

func validAxis(axis string, allowed ...string) bool {
	if axis == "" {
		return true
	}
	for _, a := range allowed {
		if a == axis {
			return true
		}
	}
	return false
}

func checkGuard(c *contract.Contract, g *contract.GuardSpec, path string, col *collector) {
	switch g.Direction {
	case "", contract.DirectionFalling, contract.DirectionRising, contract.DirectionEither:
	default:
		col.errorf(CodeGuardInvalid, path+".direction", "use falling, rising or either", "unknown direction %q", g.Direction)
	}

	needBody := func() bool {
		if c.BodyIndex(g.Body) < 0 {
			col.errorf(CodeRefUnknown, path+".body", "guards observe declared bodies", "unknown body %q", g.Body)
			return false
		}
		return true
	}

	switch g.Kind {
	case contract.GuardContact, contract.GuardSeparation, contract.GuardTangentialVelocity:
		needBody()
		if g.Other == g.Body || !c.HasEntity(g.Other) {
			col.errorf(CodeRefUnknown, path+".other", "other is a surface or a different body", "unknown partner %q", g.Other)
		}
	case contract.GuardVelocityZero:
		needBody()
		if !validAxis(g.Axis, "x", "y", "omega") {
			col.errorf(CodeGuardInvalid, path+".axis", "axis is x, y or omega", "unknown axis %q", g.Axis)
		}
	case contract.GuardPosition:
		needBody()
		if !validAxis(g.Axis, "x", "y", "angle") {
			col.errorf(CodeGuardInvalid, path+".axis", "axis is x, y or angle", "unknown axis %q", g.Axis)
		}
	case contract.GuardDistance:
		needBody()
		if g.Point == nil && (g.Other == g.Body || c.BodyIndex(g.Other) < 0) {
			col.errorf(CodeRefUnknown, path, "distance guards need another body or a point", "no target for distance guard")
		}
		if g.Value < 0 {
			col.errorf(CodeGuardInvalid, path+".value", "distance radius is non-negative", "value %g", g.Value)
		}
	case contract.GuardTime:
		if g.Value < 0 {
			col.errorf(CodeGuardInvalid, path+".value", "time guards fire at a non-negative time", "value %g", g.Value)
		}
	case contract.GuardAlways:
	default:
		col.errorf(CodeGuardInvalid, path+".kind", "see the guard kind list", "unknown guard kind %q", g.Kind)
	}
}

func checkTest(c *contract.Contract, a contract.AcceptanceTest, path string, col *collector) {
	switch a.Kind {
	case contract.TestEventTime:
		if _, ok := c.ExpectedEvent(a.Event); !ok {
			col.errorf(CodeRefUnknown, path+".event", "event_time tests name a declared expected event", "unknown event %q", a.Event)
		}
		if a.Min > a.Max {
			col.errorf(CodeTestInvalid, path, "min must not exceed max", "min %g > max %g", a.Min, a.Max)
		}
	case contract.TestConservation:
		switch a.Quantity {
		case "", contract.QuantityEnergy, contract.QuantityMomentum, contract.QuantityMomentumX,
			contract.QuantityMomentumY, contract.QuantityAngularMomentum:
		default:
			col.errorf(CodeTestInvalid, path+".quantity", "conserve energy, momentum[_x|_y] or angular_momentum",
				"unknown quantity %q", a.Quantity)
		}
		if a.Tolerance < 0 {
			col.errorf(CodeTestInvalid, path+".tolerance", "tolerance is non-negative", "tolerance %g", a.Tolerance)
		}
	case contract.TestShape:
		if a.Signal == nil {
			col.errorf(CodeTestInvalid, path+".signal", "shape tests sample a signal", "missing signal")
		} else {
			checkSignal(c, a.Signal.Body, a.Signal.Quantity, path+".signal", col)
		}
		if !contract.IsPattern(a.Pattern) {
			col.errorf(CodeTestInvalid, path+".pattern", "use increasing, decreasing, single_peak, parabolic or linear",
				"unknown pattern %q", a.Pattern)
		}
		if a.R2Min < 0 || a.R2Min > 1 {
			col.errorf(CodeTestInvalid, path+".r2_min", "r2_min lies in [0, 1]", "r2_min %g", a.R2Min)
		}
	case contract.TestRatio:
		checkRatio(c, a, path, col)
	default:
		col.errorf(CodeTestInvalid, path+".kind", "use event_time, conservation, shape or ratio", "unknown test kind %q", a.Kind)
	}
}

func checkSignal(c *contract.Contract, body, quantity, path string, col *collector) {
	if body == "" {
		if !contract.IsSystemQuantity(quantity) {
			col.errorf(CodeTestInvalid, path+".quantity", "system signals: energy, kinetic, potential, momentum_x, momentum_y, angular_momentum",
				"unknown system quantity %q", quantity)
		}
		return
	}
	if c.BodyIndex(body) < 0 {
		col.errorf(CodeRefUnknown, path+".body", "signals sample declared bodies", "unknown body %q", body)
	}
	if !contract.IsBodyQuantity(quantity) {
		col.errorf(CodeTestInvalid, path+".quantity", "body signals: x, y, angle, vx, vy, omega, speed",
			"unknown body quantity %q", quantity)
	}
}

func checkRatio(c *contract.Contract, a contract.AcceptanceTest, path string, col *collector) {
	names := make([]string, 0, len(a.Quantities))
	for name := range a.Quantities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := a.Quantities[name]
		qpath := path + ".quantities." + name
		checkSignal(c, m.Body, m.Quantity, qpath, col)
		if m.Event != "" {
			if _, ok := c.ExpectedEvent(m.Event); !ok {
				col.errorf(CodeRefUnknown, qpath+".event", "name a declared expected event", "unknown event %q", m.Event)
			}
		}
		switch m.Side {
		case "", "before", "after":
		default:
			col.errorf(CodeTestInvalid, qpath+".side", "side is before or after", "unknown side %q", m.Side)
		}
		switch m.Reduce {
		case "", "initial", "final", "max", "min", "mean":
		default:
			col.errorf(CodeTestInvalid, qpath+".reduce", "reduce is initial, final, max, min or mean", "unknown reduction %q", m.Reduce)
		}
	}

	expr, err := parser.ParseExpr(a.Expression)
	if err != nil {
		col.errorf(CodeExprInvalid, path+".expression", "write an arithmetic expression over the declared quantities", "%v", err)
		return
	}
	checkExpr(expr, a.Quantities, path+".expression", col)
}

func checkExpr(e ast.Expr, quantities map[string]contract.Measure, path string, col *collector) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		checkExpr(e.X, quantities, path, col)
	case *ast.Ident:
		if _, ok := quantities[e.Name]; !ok {
			col.errorf(CodeExprInvalid, path, "declare every name under quantities", "undeclared name %q", e.Name)
		}
	case *ast.BasicLit:
		if e.Kind != token.INT && e.Kind != token.FLOAT {
			col.errorf(CodeExprInvalid, path, "only numeric literals are allowed", "literal %s", e.Value)
		}
	case *ast.BinaryExpr:
		switch e.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO:
		default:
			col.errorf(CodeExprInvalid, path, "operators: + - * /", "operator %s", e.Op)
		}
		checkExpr(e.X, quantities, path, col)
		checkExpr(e.Y, quantities, path, col)
	case *ast.UnaryExpr:
		if e.Op != token.SUB && e.Op != token.ADD {
			col.errorf(CodeExprInvalid, path, "operators: + - * /", "operator %s", e.Op)
		}
		checkExpr(e.X, quantities, path, col)
	case *ast.CallExpr:
		fn, ok := e.Fun.(*ast.Ident)
		if !ok {
			col.errorf(CodeExprInvalid, path, "functions: abs, sqrt, pow, min, max", "unsupported call")
			return
		}
		arity, known := contract.ExprFuncs[fn.Name]
		if !known {
			col.errorf(CodeExprInvalid, path, "functions: abs, sqrt, pow, min, max", "unknown function %q", fn.Name)
			return
		}
		if len(e.Args) != arity {
			col.errorf(CodeExprInvalid, path, "", "%s takes %d arguments", fn.Name, arity)
		}
		for _, arg := range e.Args {
			checkExpr(arg, quantities, path, col)
		}
	default:
		col.errorf(CodeExprInvalid, path, "write an arithmetic expression", "unsupported syntax %T", e)
	}
}
