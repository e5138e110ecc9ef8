package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/phystrace/internal/contract"
)

func ballContract() *contract.Contract {
	return &contract.Contract{
		Name:       "ball",
		World:      contract.World{Gravity: contract.Vec2{0, -9.8}},
		Simulation: contract.Simulation{TEnd: 3},
		Bodies: []contract.Body{{
			ID:       "ball",
			Shape:    contract.Shape{Kind: contract.ShapeCircle, Radius: 0.1},
			Mass:     1,
			Initial:  contract.InitialState{Position: contract.Vec2{0, 5}},
			Material: &contract.Material{Restitution: 0.8},
			Contacts: []string{"ground"},
		}},
		Surfaces: []contract.Surface{{
			ID:     "ground",
			Normal: contract.Vec2{0, 1},
		}},
		ExpectedEvents: []contract.ExpectedEvent{{
			Name: "bounce", Type: contract.EventContact, Participants: []string{"ball", "ground"}, Order: 1,
		}},
		AcceptanceTests: []contract.AcceptanceTest{
			{ID: "t1", Kind: contract.TestEventTime, Event: "bounce", Min: 0.9, Max: 1.1},
		},
	}
}

func codes(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func TestValidContractPasses(t *testing.T) {
	c := ballContract()
	r := Validate(c)

	require.True(t, r.OK, "errors: %v", r.Errors)
	require.NotNil(t, r.Normalized)
	assert.True(t, r.Normalized.Sealed())
	assert.False(t, c.Sealed(), "input must not be sealed")
	assert.InDelta(t, 0.5*0.01, r.Normalized.Bodies[0].Inertia, 1e-15, "inertia derived from the circle")
	assert.Equal(t, 0.0, c.Bodies[0].Inertia, "input untouched")
	assert.Equal(t, contract.IntegratorRK45, r.Normalized.Simulation.Integrator)
	assert.NoError(t, r.Err())
}

func TestAccumulatesEveryError(t *testing.T) {
	c := ballContract()
	c.Units.Length = "furlong"
	c.Bodies[0].Mass = 0
	c.Bodies[0].Material.Restitution = 1.5
	c.Bodies[0].Contacts = []string{"wall"}
	c.AcceptanceTests[0].Event = "nope"

	r := Validate(c)
	require.False(t, r.OK)
	assert.Nil(t, r.Normalized)
	got := codes(r.Errors)
	for _, want := range []string{CodeUnitUnknown, CodeMassNonPositive, CodeRestitutionRange, CodeContactUnknown, CodeRefUnknown} {
		assert.Contains(t, got, want)
	}
	assert.Error(t, r.Err())
}

func TestStructuralFailureShortCircuits(t *testing.T) {
	c := ballContract()
	c.Bodies = append(c.Bodies, contract.Body{ID: "ball", Shape: contract.Shape{Kind: "blob"}})
	c.Bodies[0].Material.Restitution = 2

	r := Validate(c)
	require.False(t, r.OK)
	assert.ElementsMatch(t, []string{CodeDuplicateID, CodeShapeUnknown}, codes(r.Errors))
}

func TestUnitNormalization(t *testing.T) {
	c := ballContract()
	c.Units = contract.Units{Length: "cm", Mass: "g", Time: "ms", Angle: "deg"}
	c.Bodies[0].Shape.Radius = 10
	c.Bodies[0].Mass = 500
	c.Bodies[0].Initial.Position = contract.Vec2{0, 500}
	c.Bodies[0].Initial.Angle = 90
	c.Bodies[0].Initial.Velocity = contract.Vec2{1, 0}
	c.Simulation.TEnd = 3000
	c.AcceptanceTests[0].Min, c.AcceptanceTests[0].Max = 900, 1100

	r := Validate(c)
	require.True(t, r.OK, "errors: %v", r.Errors)
	n := r.Normalized
	b := n.Bodies[0]
	assert.InDelta(t, 0.1, b.Shape.Radius, 1e-12)
	assert.InDelta(t, 0.5, b.Mass, 1e-12)
	assert.InDelta(t, 5, b.Initial.Position[1], 1e-12)
	assert.InDelta(t, math.Pi/2, b.Initial.Angle, 1e-12)
	assert.InDelta(t, 10, b.Initial.Velocity[0], 1e-12, "cm/ms to m/s")
	assert.InDelta(t, 3, n.Simulation.TEnd, 1e-12)
	assert.InDelta(t, 0.9, n.AcceptanceTests[0].Min, 1e-12)
	assert.Equal(t, contract.SI, n.Units)
}

func TestSurfaceNormals(t *testing.T) {
	t.Run("incline angle", func(t *testing.T) {
		c := ballContract()
		angle := 20.0
		c.Units.Angle = "deg"
		c.Surfaces[0].Angle = &angle
		c.Surfaces[0].Normal = contract.Vec2{}

		r := Validate(c)
		require.True(t, r.OK, "errors: %v", r.Errors)
		n := r.Normalized.Surfaces[0].Normal
		th := 20 * math.Pi / 180
		assert.InDelta(t, -math.Sin(th), n[0], 1e-12)
		assert.InDelta(t, math.Cos(th), n[1], 1e-12)
		assert.Nil(t, r.Normalized.Surfaces[0].Angle)
	})

	t.Run("non-unit normal warns", func(t *testing.T) {
		c := ballContract()
		c.Surfaces[0].Normal = contract.Vec2{0, 2}
		r := Validate(c)
		require.True(t, r.OK)
		assert.True(t, r.Has(CodeNormalNotUnit))
		assert.Equal(t, contract.Vec2{0, 1}, r.Normalized.Surfaces[0].Normal)
	})

	t.Run("zero normal fails", func(t *testing.T) {
		c := ballContract()
		c.Surfaces[0].Normal = contract.Vec2{}
		r := Validate(c)
		assert.False(t, r.OK)
		assert.Contains(t, codes(r.Errors), CodeNormalZero)
	})

	t.Run("reversed bounds swap", func(t *testing.T) {
		c := ballContract()
		c.Surfaces[0].Bounds = &contract.Bounds{Start: contract.Vec2{5, 0}, End: contract.Vec2{-5, 0}}
		r := Validate(c)
		require.True(t, r.OK)
		assert.True(t, r.Has(CodeBoundsReversed))
		assert.Equal(t, contract.Vec2{-5, 0}, r.Normalized.Surfaces[0].Bounds.Start)
	})
}

func TestPolygonChecks(t *testing.T) {
	poly := func(vs ...contract.Vec2) *contract.Contract {
		c := ballContract()
		c.Bodies[0].Shape = contract.Shape{Kind: contract.ShapePolygon, Vertices: vs}
		return c
	}

	t.Run("clockwise is rewound", func(t *testing.T) {
		r := Validate(poly(contract.Vec2{-1, -1}, contract.Vec2{-1, 1}, contract.Vec2{1, 1}, contract.Vec2{1, -1}))
		require.True(t, r.OK, "errors: %v", r.Errors)
		assert.True(t, r.Has(CodePolyClockwise))
		vs := r.Normalized.Bodies[0].Shape.Vertices
		assert.Equal(t, contract.Vec2{1, -1}, vs[0])
	})

	t.Run("self intersection", func(t *testing.T) {
		r := Validate(poly(contract.Vec2{0, 0}, contract.Vec2{1, 1}, contract.Vec2{1, 0}, contract.Vec2{0, 1}))
		assert.False(t, r.OK)
		assert.Contains(t, codes(r.Errors), CodePolySelfIntersect)
	})

	t.Run("recentered on centroid", func(t *testing.T) {
		r := Validate(poly(contract.Vec2{0, 0}, contract.Vec2{2, 0}, contract.Vec2{2, 2}, contract.Vec2{0, 2}))
		require.True(t, r.OK, "errors: %v", r.Errors)
		assert.True(t, r.Has(CodePolyRecentered))
		b := r.Normalized.Bodies[0]
		assert.InDelta(t, 1, b.Initial.Position[0], 1e-12)
		assert.InDelta(t, 6, b.Initial.Position[1], 1e-12)
		assert.InDelta(t, -1, b.Shape.Vertices[0][0], 1e-12)
		assert.InDelta(t, 1*(4+4)/12.0, b.Inertia, 1e-12)
	})
}

func TestFrictionOrder(t *testing.T) {
	c := ballContract()
	c.Surfaces[0].Material = &contract.Material{StaticFriction: 0.2, KineticFriction: 0.3}
	r := Validate(c)
	assert.Contains(t, codes(r.Errors), CodeFrictionOrder)
}

func phased(phases ...contract.Phase) *contract.Contract {
	c := ballContract()
	c.Phases = phases
	return c
}

func guardTo(to string, kind contract.GuardKind) contract.Transition {
	return contract.Transition{To: to, Guard: &contract.GuardSpec{Kind: kind, Body: "ball", Axis: "y"}}
}

func TestPhaseIntegrity(t *testing.T) {
	t.Run("exactly one initial", func(t *testing.T) {
		r := Validate(phased(contract.Phase{ID: "a", Initial: true}, contract.Phase{ID: "b", Initial: true}))
		assert.Contains(t, codes(r.Errors), CodePhaseInitial)
	})

	t.Run("undefined target", func(t *testing.T) {
		r := Validate(phased(contract.Phase{ID: "a", Initial: true, Transitions: []contract.Transition{guardTo("zz", contract.GuardVelocityZero)}}))
		assert.Contains(t, codes(r.Errors), CodePhaseUndefined)
	})

	t.Run("always cycle", func(t *testing.T) {
		r := Validate(phased(
			contract.Phase{ID: "a", Initial: true, Transitions: []contract.Transition{guardTo("b", contract.GuardVelocityZero)}},
			contract.Phase{ID: "b", Transitions: []contract.Transition{guardTo("c", contract.GuardAlways)}},
			contract.Phase{ID: "c", Transitions: []contract.Transition{guardTo("b", contract.GuardAlways)}},
		))
		assert.Contains(t, codes(r.Errors), CodePhaseCycle)
	})

	t.Run("guarded escape is not a cycle", func(t *testing.T) {
		r := Validate(phased(
			contract.Phase{ID: "a", Initial: true, Transitions: []contract.Transition{
				guardTo("b", contract.GuardVelocityZero),
			}},
			contract.Phase{ID: "b", Transitions: []contract.Transition{guardTo("a", contract.GuardVelocityZero)}},
		))
		assert.True(t, r.OK, "errors: %v", r.Errors)
	})

	t.Run("one unreachable warns", func(t *testing.T) {
		r := Validate(phased(contract.Phase{ID: "a", Initial: true}, contract.Phase{ID: "b"}))
		assert.True(t, r.OK)
		assert.True(t, r.Has(CodePhaseUnreachableW))
	})

	t.Run("two unreachable fail", func(t *testing.T) {
		r := Validate(phased(contract.Phase{ID: "a", Initial: true}, contract.Phase{ID: "b"}, contract.Phase{ID: "c"}))
		assert.False(t, r.OK)
		assert.Equal(t, []string{CodePhaseUnreachable, CodePhaseUnreachable}, codes(r.Errors))
	})
}

func TestRatioExpression(t *testing.T) {
	c := ballContract()
	c.AcceptanceTests = append(c.AcceptanceTests, contract.AcceptanceTest{
		ID: "r", Kind: contract.TestRatio, Expression: "sqrt(after) / before + os.Exit(1)",
		Quantities: map[string]contract.Measure{
			"before": {Body: "ball", Quantity: "speed", Event: "bounce", Side: "before"},
			"after":  {Body: "ball", Quantity: "speed", Event: "bounce", Side: "after"},
		},
	})
	r := Validate(c)
	assert.Contains(t, codes(r.Errors), CodeExprInvalid)

	c.AcceptanceTests[1].Expression = "pow(after / before, 2)"
	r = Validate(c)
	assert.True(t, r.OK, "errors: %v", r.Errors)
}

func TestYDownMirroredToYUp(t *testing.T) {
	c := ballContract()
	c.World.Coordinates = contract.CoordinatesYDown
	c.World.Gravity = contract.Vec2{0, 9.8}
	c.Bodies[0].Initial.Position = contract.Vec2{0, -5}
	c.Bodies[0].Initial.Velocity = contract.Vec2{1, 2}
	c.Bodies[0].Initial.Angle = 0.3
	c.Bodies = append(c.Bodies, contract.Body{
		ID:    "wedge",
		Shape: contract.Shape{Kind: contract.ShapePolygon, Vertices: []contract.Vec2{{0, 0}, {1, 0}, {0, 1}}},
		Mass:  1,
		Initial: contract.InitialState{Position: contract.Vec2{3, -2}},
	})
	c.Surfaces[0].Normal = contract.Vec2{0, -1}
	c.Surfaces[0].Bounds = &contract.Bounds{Start: contract.Vec2{5, 0}, End: contract.Vec2{-5, 0}}
	c.ExpectedEvents = append(c.ExpectedEvents, contract.ExpectedEvent{
		Name: "low", Type: contract.EventGuard, Participants: []string{"ball"},
		Guard: &contract.GuardSpec{Kind: contract.GuardPosition, Body: "ball", Axis: "y", Value: -1, Direction: contract.DirectionRising},
	})

	r := Validate(c)
	require.True(t, r.OK, "errors: %v", r.Errors)
	assert.False(t, r.Has(CodePolyClockwise), "mirrored polygon keeps its winding")
	assert.False(t, r.Has(CodeBoundsReversed), "mirrored bounds keep their order")

	n := r.Normalized
	assert.Equal(t, contract.CoordinatesYUp, n.World.Coordinates)
	assert.Equal(t, contract.Vec2{0, -9.8}, n.World.Gravity)
	ball := n.Bodies[0]
	assert.Equal(t, contract.Vec2{0, 5}, ball.Initial.Position)
	assert.Equal(t, contract.Vec2{1, -2}, ball.Initial.Velocity)
	assert.Equal(t, -0.3, ball.Initial.Angle)
	ground := n.Surfaces[0]
	assert.Equal(t, contract.Vec2{0, 1}, ground.Normal)
	assert.Equal(t, contract.Vec2{-5, 0}, ground.Bounds.Start)

	g := n.ExpectedEvents[1].Guard
	assert.Equal(t, 1.0, g.Value)
	assert.Equal(t, contract.DirectionFalling, g.Direction)
	assert.Equal(t, contract.CoordinatesYDown, c.World.Coordinates, "input untouched")
}

func TestUnknownCoordinatesRejected(t *testing.T) {
	c := ballContract()
	c.World.Coordinates = "z_up"

	r := Validate(c)
	require.False(t, r.OK)
	assert.Contains(t, codes(r.Errors), CodeSchemaCoordinates)
}
