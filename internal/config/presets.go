package config

import (
	"math"
	"sort"

	"github.com/san-kum/phystrace/internal/contract"
)

type Preset struct {
	Description string
	Build       func() *contract.Contract
}

var Presets = map[string]Preset{
	"bouncing_ball": {
		Description: "ball dropped from 5 m onto the ground, e = 0.8",
		Build:       func() *contract.Contract { return bouncingBall("bouncing_ball", 0.8) },
	},
	"elastic_bounce": {
		Description: "frictionless ball with a perfectly elastic bounce",
		Build: func() *contract.Contract {
			c := bouncingBall("elastic_bounce", 1)
			c.AcceptanceTests[1].Tolerance = 1e-3
			return c
		},
	},
	"incline_static": {
		Description: "box held by static friction on a 20 degree incline",
		Build:       inclineStatic,
	},
	"incline_sliding": {
		Description: "box sliding down a 20 degree incline under kinetic friction",
		Build:       inclineSliding,
	},
	"double_collision": {
		Description: "ball-ball impact followed by a wall impact, no gravity",
		Build:       doubleCollision,
	},
	"spring_oscillator": {
		Description: "mass on a spring to a world anchor, drag switched on after the first turn",
		Build:       springOscillator,
	},
}

// GetPreset returns a fresh raw contract, or nil for an unknown name.
func GetPreset(name string) *contract.Contract {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func bouncingBall(name string, e float64) *contract.Contract {
	return &contract.Contract{
		Name:       name,
		World:      contract.World{Gravity: contract.Vec2{0, -9.8}},
		Simulation: contract.Simulation{TEnd: 3, HMax: 0.01},
		Bodies: []contract.Body{{
			ID:       "ball",
			Shape:    contract.Shape{Kind: contract.ShapeCircle, Radius: 0.05},
			Mass:     1,
			Initial:  contract.InitialState{Position: contract.Vec2{0, 5.05}},
			Material: &contract.Material{Restitution: e},
			Contacts: []string{"ground"},
		}},
		Surfaces: []contract.Surface{{ID: "ground", Normal: contract.Vec2{0, 1}}},
		ExpectedEvents: []contract.ExpectedEvent{
			{Name: "first_bounce", Type: contract.EventContact, Participants: []string{"ball", "ground"},
				Order: 1, Occurrence: 1, Window: []float64{0.9, 1.1}},
			{Name: "apex", Type: contract.EventVelocityZero, Participants: []string{"ball"}, Axis: "y",
				Order: 2, Occurrence: 1},
		},
		AcceptanceTests: []contract.AcceptanceTest{
			{ID: "bounce_time", Kind: contract.TestEventTime, Weight: 1, Event: "first_bounce", Min: 1.0, Max: 1.02},
			{ID: "energy", Kind: contract.TestConservation, Weight: 1, Quantity: contract.QuantityEnergy, Tolerance: 0.01},
			{ID: "flight", Kind: contract.TestShape, Weight: 1, Signal: &contract.SignalRef{Body: "ball", Quantity: contract.QuantityY},
				Pattern: contract.PatternParabolic, R2Min: 0.99, Window: []float64{1.05, 2.5}},
			{ID: "restitution", Kind: contract.TestRatio, Weight: 1, Expression: "v_after / v_before", Expected: e, Tolerance: 0.01,
				Quantities: map[string]contract.Measure{
					"v_before": {Body: "ball", Quantity: contract.QuantitySpeed, Event: "first_bounce", Side: "before"},
					"v_after":  {Body: "ball", Quantity: contract.QuantitySpeed, Event: "first_bounce", Side: "after"},
				}},
		},
	}
}

const inclineDeg = 20

// incline places a 0.2 m box flush on a 20 degree ramp through the origin,
// one metre up the slope.
func incline(name string, static, kinetic, tEnd float64) *contract.Contract {
	th := inclineDeg * math.Pi / 180
	along := [2]float64{math.Cos(th), math.Sin(th)}
	n := [2]float64{-math.Sin(th), math.Cos(th)}
	angle := float64(inclineDeg)
	return &contract.Contract{
		Name:       name,
		Units:      contract.Units{Angle: "deg"},
		World:      contract.World{Gravity: contract.Vec2{0, -9.8}},
		Simulation: contract.Simulation{TEnd: tEnd, HMax: 0.01},
		Bodies: []contract.Body{{
			ID:    "box",
			Shape: contract.Shape{Kind: contract.ShapeBox, Width: 0.2, Height: 0.2},
			Mass:  1,
			Initial: contract.InitialState{
				Position: contract.Vec2{along[0] + 0.1*n[0], along[1] + 0.1*n[1]},
				Angle:    inclineDeg,
			},
			Material: &contract.Material{StaticFriction: static, KineticFriction: kinetic},
			Contacts: []string{"ramp"},
		}},
		Surfaces: []contract.Surface{{ID: "ramp", Angle: &angle}},
	}
}

func inclineStatic() *contract.Contract {
	c := incline("incline_static", 0.5, 0.3, 2)
	c.AcceptanceTests = []contract.AcceptanceTest{
		{ID: "held", Kind: contract.TestRatio, Weight: 1, Expression: "x_end / x_start", Expected: 1, Tolerance: 1e-3,
			Quantities: map[string]contract.Measure{
				"x_start": {Body: "box", Quantity: contract.QuantityX, Reduce: "initial"},
				"x_end":   {Body: "box", Quantity: contract.QuantityX, Reduce: "final"},
			}},
		{ID: "energy", Kind: contract.TestConservation, Weight: 1, Quantity: contract.QuantityEnergy, Tolerance: 1e-3},
	}
	return c
}

// The expected acceleration is g(sin 20 - 0.15 cos 20).
func inclineSliding() *contract.Contract {
	c := incline("incline_sliding", 0.2, 0.15, 2)
	c.AcceptanceTests = []contract.AcceptanceTest{
		{ID: "acceleration", Kind: contract.TestRatio, Weight: 2, Expression: "v_end / 2", Expected: 1.9705, Tolerance: 0.01,
			Quantities: map[string]contract.Measure{
				"v_end": {Body: "box", Quantity: contract.QuantitySpeed, Reduce: "final"},
			}},
		{ID: "descent", Kind: contract.TestShape, Weight: 1, Signal: &contract.SignalRef{Body: "box", Quantity: contract.QuantityX},
			Pattern: contract.PatternDecreasing},
		{ID: "energy", Kind: contract.TestConservation, Weight: 1, Quantity: contract.QuantityEnergy, Tolerance: 1e-3},
	}
	return c
}

func doubleCollision() *contract.Contract {
	ball := func(id string, x, vx float64, contacts ...string) contract.Body {
		return contract.Body{
			ID:       id,
			Shape:    contract.Shape{Kind: contract.ShapeCircle, Radius: 0.1},
			Mass:     1,
			Initial:  contract.InitialState{Position: contract.Vec2{x, 0}, Velocity: contract.Vec2{vx, 0}},
			Material: &contract.Material{Restitution: 1},
			Contacts: contacts,
		}
	}
	return &contract.Contract{
		Name:       "double_collision",
		Simulation: contract.Simulation{TEnd: 1.2, HMax: 0.01},
		Bodies:     []contract.Body{ball("a", 0, 2, "b"), ball("b", 1, 0, "wall")},
		Surfaces:   []contract.Surface{{ID: "wall", Point: contract.Vec2{2, 0}, Normal: contract.Vec2{-1, 0}}},
		ExpectedEvents: []contract.ExpectedEvent{
			{Name: "a_hits_b", Type: contract.EventContact, Participants: []string{"a", "b"}, Order: 1, Occurrence: 1},
			{Name: "b_hits_wall", Type: contract.EventContact, Participants: []string{"b", "wall"}, Order: 2, Occurrence: 1},
		},
		AcceptanceTests: []contract.AcceptanceTest{
			{ID: "first", Kind: contract.TestEventTime, Weight: 1, Event: "a_hits_b", Min: 0.399, Max: 0.401},
			{ID: "second", Kind: contract.TestEventTime, Weight: 1, Event: "b_hits_wall", Min: 0.849, Max: 0.851},
			{ID: "momentum", Kind: contract.TestConservation, Weight: 1, Quantity: contract.QuantityMomentumX,
				Tolerance: 1e-6, Window: []float64{0, 0.8}},
			{ID: "energy", Kind: contract.TestConservation, Weight: 1, Quantity: contract.QuantityEnergy, Tolerance: 1e-6},
		},
	}
}

func springOscillator() *contract.Contract {
	return &contract.Contract{
		Name:       "spring_oscillator",
		Simulation: contract.Simulation{TEnd: 3, HMax: 0.01},
		Bodies: []contract.Body{{
			ID:            "mass",
			Shape:         contract.Shape{Kind: contract.ShapeCircle, Radius: 0.05},
			Mass:          1,
			FixedRotation: true,
			Initial:       contract.InitialState{Position: contract.Vec2{1.5, 0}},
		}},
		Constraints: contract.Constraints{Springs: []contract.Spring{
			{ID: "spring", A: "mass", Stiffness: 40, RestLength: 1},
		}},
		Forces: []contract.Force{
			{ID: "drag", Kind: contract.ForceLinearDrag, Body: "mass", Coefficient: 0.5, Disabled: true},
		},
		Phases: []contract.Phase{
			{ID: "free", Initial: true, Transitions: []contract.Transition{{To: "damped", OnEvent: "turn"}}},
			{ID: "damped", Activate: []string{"drag"}},
		},
		ExpectedEvents: []contract.ExpectedEvent{
			{Name: "turn", Type: contract.EventVelocityZero, Participants: []string{"mass"}, Axis: "x", Order: 1, Occurrence: 1},
		},
		AcceptanceTests: []contract.AcceptanceTest{
			// Half the period of sqrt(k/m) = sqrt(40).
			{ID: "half_period", Kind: contract.TestEventTime, Weight: 1, Event: "turn", Min: 0.49, Max: 0.50},
			{ID: "ledger", Kind: contract.TestConservation, Weight: 1, Quantity: contract.QuantityEnergy, Tolerance: 1e-4},
			{ID: "swing", Kind: contract.TestShape, Weight: 1, Signal: &contract.SignalRef{Body: "mass", Quantity: contract.QuantityX},
				Pattern: contract.PatternDecreasing, Window: []float64{0, 0.49}},
			{ID: "amplitude", Kind: contract.TestRatio, Weight: 1, Expression: "x_min / x_max", Expected: 0.5 / 1.5, Tolerance: 0.01,
				Quantities: map[string]contract.Measure{
					"x_min": {Body: "mass", Quantity: contract.QuantityX, Reduce: "min"},
					"x_max": {Body: "mass", Quantity: contract.QuantityX, Reduce: "max"},
				}},
		},
	}
}
