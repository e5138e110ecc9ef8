package contract

import (
	"errors"
	"math"
	"testing"
)

const ballYAML = `
name: ball
units: {length: cm, mass: g, time: s, angle: deg}
world:
  gravity: [0, -980]
  constants:
    zeta: 3
    alpha: 1
    g: 9.8
simulation: {t_end: 2}
bodies:
  - id: ball
    shape: {kind: circle, radius: 10}
    mass: 1000
    initial: {position: [0, 500], angle: 90}
    material: {restitution: 0.8}
    contacts: [ground]
surfaces:
  - id: ground
    point: [0, 0]
    normal: [0, 1]
acceptance_tests:
  - id: r
    kind: ratio
    expression: a / b
    quantities:
      a: {body: ball, quantity: speed, event: hit, side: after}
      b: {body: ball, quantity: speed, event: hit, side: before}
`

func TestDecodeYAML(t *testing.T) {
	c, err := Decode([]byte(ballYAML), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(c.Bodies) != 1 || c.Bodies[0].Shape.Kind != ShapeCircle {
		t.Fatalf("unexpected bodies: %+v", c.Bodies)
	}
	if c.Bodies[0].Initial.Position != (Vec2{0, 500}) {
		t.Errorf("position = %v", c.Bodies[0].Initial.Position)
	}
	if c.Bodies[0].Material == nil || c.Bodies[0].Material.Restitution != 0.8 {
		t.Errorf("material not decoded: %+v", c.Bodies[0].Material)
	}
	if c.Surfaces[0].Material != nil {
		t.Errorf("missing material block should stay nil")
	}
	if len(c.AcceptanceTests[0].Quantities) != 2 {
		t.Errorf("quantities = %v", c.AcceptanceTests[0].Quantities)
	}
}

func TestConstantsKeepDeclarationOrder(t *testing.T) {
	c, err := Decode([]byte(ballYAML), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	names := c.World.Constants.Names()
	want := []string{"zeta", "alpha", "g"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	data, err := Encode(c, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Decode(data, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if got := back.World.Constants.Names(); len(got) != 3 || got[0] != "zeta" || got[2] != "g" {
		t.Errorf("json order lost: %v", got)
	}
	if g, _ := back.World.Constants.Get("g"); g != 9.8 {
		t.Errorf("g = %v", g)
	}
}

func TestCloneIsDeep(t *testing.T) {
	c, err := Decode([]byte(ballYAML), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	cp := c.Clone()

	cp.Bodies[0].Material.Restitution = 0.1
	cp.Bodies[0].Contacts[0] = "wall"
	cp.World.Constants.Set("g", 1)
	m := cp.AcceptanceTests[0].Quantities["a"]
	m.Side = "before"
	cp.AcceptanceTests[0].Quantities["a"] = m

	if c.Bodies[0].Material.Restitution != 0.8 {
		t.Error("material aliased")
	}
	if c.Bodies[0].Contacts[0] != "ground" {
		t.Error("contacts aliased")
	}
	if g, _ := c.World.Constants.Get("g"); g != 9.8 {
		t.Error("constants aliased")
	}
	if c.AcceptanceTests[0].Quantities["a"].Side != "after" {
		t.Error("quantities aliased")
	}
}

func TestScaleFor(t *testing.T) {
	s, errs := ScaleFor(Units{Length: "cm", Mass: "g", Time: "ms", Angle: "deg"})
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if s.Length != 0.01 || s.Mass != 0.001 || s.Time != 0.001 {
		t.Errorf("scale = %+v", s)
	}
	if math.Abs(s.Angle-math.Pi/180) > 1e-15 {
		t.Errorf("angle factor = %v", s.Angle)
	}
	if math.Abs(s.Velocity()-10) > 1e-12 {
		t.Errorf("cm/ms = %v m/s, want 10", s.Velocity())
	}

	_, errs = ScaleFor(Units{Length: "furlong", Angle: "grad"})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrUnknownUnit) {
			t.Errorf("error %v does not wrap ErrUnknownUnit", err)
		}
	}
}

func TestFillDefaults(t *testing.T) {
	c := &Contract{}
	c.Tolerances.Slop = 0.01
	filled := c.FillDefaults()

	if c.Tolerances.Slop != 0.01 {
		t.Errorf("explicit slop overwritten")
	}
	if c.Tolerances.EventTime != DefaultTolerances().EventTime {
		t.Errorf("event_time not filled")
	}
	if c.Simulation.Integrator != IntegratorRK45 || c.Scoring != DefaultScoring() {
		t.Errorf("simulation/scoring defaults missing")
	}
	if len(filled) == 0 {
		t.Error("expected filled fields to be reported")
	}
}

func TestCloneUnseals(t *testing.T) {
	c := &Contract{Name: "x"}
	c.Seal()
	if !c.Sealed() {
		t.Fatal("seal did not stick")
	}
	if c.Clone().Sealed() {
		t.Error("clone should require validation again")
	}
}
