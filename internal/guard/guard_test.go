package guard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/geom"
	"github.com/san-kum/phystrace/internal/validate"
	"github.com/san-kum/phystrace/internal/world"
)

func ballOverFloor(t *testing.T) (*world.Registry, []float64) {
	t.Helper()
	c := &contract.Contract{
		World:      contract.World{Gravity: contract.Vec2{0, -9.81}},
		Simulation: contract.Simulation{TEnd: 1},
		Bodies: []contract.Body{{
			ID:       "ball",
			Shape:    contract.Shape{Kind: contract.ShapeCircle, Radius: 0.5},
			Mass:     1,
			Initial:  contract.InitialState{Position: contract.Vec2{1, 3}, Velocity: contract.Vec2{2, -1}},
			Contacts: []string{"floor"},
		}},
		Surfaces: []contract.Surface{{ID: "floor", Normal: contract.Vec2{0, 1}}},
	}
	res := validate.Validate(c)
	require.True(t, res.OK, "%v", res.Err())
	reg := world.Compile(res.Normalized)
	return reg, reg.InitialState(res.Normalized)
}

func TestCrossed(t *testing.T) {
	cases := []struct {
		old, new float64
		dir      Direction
		want     bool
	}{
		{1, -1, Falling, true},
		{1, 0, Falling, true},
		{0, -1, Falling, false},
		{-1, 1, Falling, false},
		{-1, 1, Rising, true},
		{1, -1, Rising, false},
		{-1, 1, Either, true},
		{1, -1, Either, true},
		{1, 2, Either, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Crossed(tc.old, tc.new, tc.dir), "%v -> %v %s", tc.old, tc.new, tc.dir)
	}
}

func TestLocateBisects(t *testing.T) {
	f := func(t float64) float64 { return 0.3 - t }
	root, warn := Locate("g", f, 0, 1, f(0), Falling, 1e-10, 200)
	require.Nil(t, warn)
	assert.InDelta(t, 0.3, root, 1e-10)
	assert.GreaterOrEqual(t, root, 0.3, "root must lie on the post-crossing side")
}

func TestLocateWarnsWithoutBracket(t *testing.T) {
	f := func(t float64) float64 { return 1 + t }
	_, warn := Locate("g", f, 0, 1, f(0), Either, 1e-9, 50)
	require.NotNil(t, warn)
	assert.Contains(t, warn.Error(), "no sign change")
}

func TestLocateStopsAtIterationCap(t *testing.T) {
	calls := 0
	f := func(t float64) float64 { calls++; return 0.5 - t }
	root, warn := Locate("g", f, 0, 1, 0.5, Falling, 0, 10)
	assert.Nil(t, warn)
	assert.Equal(t, 11, calls, "one re-evaluation of the far end plus ten halvings")
	assert.InDelta(t, 0.5, root, 1.0/1024+1e-12)
}

func TestSimultaneousOrdering(t *testing.T) {
	cs := []Crossing{
		{Guard: 4, Time: 1.0, Priority: PriorityContact, PairKey: 3},
		{Guard: 0, Time: 1.0 + 5e-10, Priority: PriorityContact, PairKey: 1},
		{Guard: 2, Time: 1.0, Priority: PrioritySeparation, PairKey: 7},
		{Guard: 1, Time: 1.5, Priority: PrioritySeparation, PairKey: 0},
		{Guard: 3, Time: 1.0, Priority: PriorityContact, PairKey: 1},
	}
	got := Simultaneous(cs, 1e-9)
	var order []int
	for _, c := range got {
		order = append(order, c.Guard)
	}
	assert.Equal(t, []int{2, 0, 3, 4}, order)
	assert.InDelta(t, 1.0+5e-10, GroupTime(got), 1e-15)
}

func TestTableEval(t *testing.T) {
	reg, x := ballOverFloor(t)
	var tb Table
	tb.Add(Guard{Kind: KindContact, Source: SourceContact, Pair: reg.Pairs[0], Rest: -1})
	tb.Add(Resolve(reg, &contract.GuardSpec{Kind: contract.GuardPosition, Body: "ball", Axis: "x", Value: 1.5}))
	tb.Add(Resolve(reg, &contract.GuardSpec{Kind: contract.GuardVelocityZero, Body: "ball", Axis: "y"}))
	tb.Add(Resolve(reg, &contract.GuardSpec{Kind: contract.GuardDistance, Body: "ball", Point: &contract.Vec2{1, 0}, Value: 1}))
	tb.Add(Resolve(reg, &contract.GuardSpec{Kind: contract.GuardTime, Value: 0.25}))
	tb.Add(Resolve(reg, &contract.GuardSpec{Kind: contract.GuardTangentialVelocity, Body: "ball", Other: "floor"}))

	g := tb.Eval(reg, x, 0, nil)
	require.Len(t, g, 6)
	assert.InDelta(t, 2.5, g[0], 1e-12)
	assert.InDelta(t, -0.5, g[1], 1e-12)
	assert.InDelta(t, -1, g[2], 1e-12)
	assert.InDelta(t, 2, g[3], 1e-12)
	assert.InDelta(t, -0.25, g[4], 1e-12)
	assert.InDelta(t, 2, g[5], 1e-12)

	assert.Equal(t, Falling, tb.Guards[0].Dir)
	assert.Equal(t, Rising, tb.Guards[4].Dir)
	assert.Equal(t, Either, tb.Guards[1].Dir)
	assert.Equal(t, 4, tb.Guards[4].Decl)
	assert.InDelta(t, g[1], tb.Value(1, reg, x, 0), 0)
}

func TestSeparationFollowsRestForce(t *testing.T) {
	reg, x := ballOverFloor(t)
	reg.SetPos(x, 0, geom.V(1, 0.5))
	reg.SetVel(x, 0, geom.V(0, 0))
	reg.AddRest(world.Rest{Body: 0, Surface: 0, Kind: world.RestPoint, Vertex: -1})

	var tb Table
	tb.Add(Guard{Kind: KindSeparation, Source: SourceRestRelease, Rest: 0, Dir: Falling})
	tb.Add(Resolve(reg, &contract.GuardSpec{Kind: contract.GuardSeparation, Body: "ball", Other: "floor"}))
	g := tb.Eval(reg, x, 0, nil)
	assert.InDelta(t, 9.81, g[0], 1e-9, "normal force of a resting unit mass")
	assert.InDelta(t, -9.81, g[1], 1e-9)

	reg.RemoveRest(0)
	gap := tb.Value(1, reg, x, 0)
	assert.InDelta(t, 0, gap, 1e-12, "without a rest the declared guard is the gap")
	assert.False(t, math.IsNaN(gap))
}

func TestParseDirectionDefaults(t *testing.T) {
	assert.Equal(t, Falling, ParseDirection("", KindContact))
	assert.Equal(t, Rising, ParseDirection("", KindSeparation))
	assert.Equal(t, Either, ParseDirection("", KindPosition))
	assert.Equal(t, Falling, ParseDirection("falling", KindTime))
	_, ok := ParseKind("bogus")
	assert.False(t, ok)
}
