package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/validate"
	"github.com/san-kum/phystrace/internal/world"
)

func rocket(t *testing.T) (*contract.Contract, *world.Registry) {
	t.Helper()
	c := &contract.Contract{
		World:      contract.World{Gravity: contract.Vec2{0, -9.81}},
		Simulation: contract.Simulation{TEnd: 5},
		Bodies: []contract.Body{{
			ID:       "probe",
			Shape:    contract.Shape{Kind: contract.ShapeCircle, Radius: 0.1},
			Mass:     1,
			Initial:  contract.InitialState{Position: contract.Vec2{0, 1}},
			Contacts: []string{"ground"},
		}},
		Surfaces: []contract.Surface{{ID: "ground", Normal: contract.Vec2{0, 1}}},
		Forces: []contract.Force{
			{ID: "thrust", Kind: contract.ForceConstant, Body: "probe", Vector: contract.Vec2{0, 20}, Disabled: true},
			{ID: "drag", Kind: contract.ForceLinearDrag, Body: "probe", Coefficient: 0.1},
		},
		ExpectedEvents: []contract.ExpectedEvent{
			{Name: "touchdown", Type: contract.EventContact, Participants: []string{"probe", "ground"}},
		},
		Phases: []contract.Phase{
			{ID: "boost", Initial: true, Activate: []string{"thrust"}, Transitions: []contract.Transition{
				{To: "coast", Guard: &contract.GuardSpec{Kind: contract.GuardTime, Value: 1}},
				{To: "landed", OnEvent: "touchdown"},
			}},
			{ID: "coast", Deactivate: []string{"thrust", "drag"}, Transitions: []contract.Transition{
				{To: "fall", Guard: &contract.GuardSpec{Kind: contract.GuardAlways}},
			}},
			{ID: "fall", Transitions: []contract.Transition{
				{To: "landed", OnEvent: "touchdown"},
			}},
			{ID: "landed", Deactivate: []string{"ground"}},
		},
	}
	res := validate.Validate(c)
	require.True(t, res.OK, "%v", res.Err())
	return res.Normalized, world.Compile(res.Normalized)
}

func TestStartAppliesActivation(t *testing.T) {
	c, reg := rocket(t)
	m := New(c.Phases, reg.Active)

	require.False(t, reg.Active.Force(0))
	entries, err := m.Start(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boost", m.Current())
	assert.True(t, reg.Active.Force(0))
	assert.True(t, reg.Active.Force(1))

	cands := m.Candidates()
	require.Len(t, cands, 1, "on_event transitions are not guard candidates")
	assert.Equal(t, "coast", cands[0].To)
	assert.False(t, m.Terminal())
}

func TestFireFollowsAlwaysChain(t *testing.T) {
	c, reg := rocket(t)
	m := New(c.Phases, reg.Active)
	_, err := m.Start(0)
	require.NoError(t, err)

	entries, err := m.Fire(0, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "coast", entries[0].Phase)
	assert.Equal(t, "fall", entries[1].Phase)
	assert.Equal(t, "always", entries[1].Cause)
	assert.Equal(t, "fall", m.Current())
	assert.False(t, reg.Active.Force(0))
	assert.False(t, reg.Active.Force(1))
	assert.Len(t, m.History(), 3)
}

func TestOnEvent(t *testing.T) {
	c, reg := rocket(t)
	m := New(c.Phases, reg.Active)
	_, err := m.Start(0)
	require.NoError(t, err)

	_, ok, err := m.OnEvent("unrelated", 0.2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "boost", m.Current())

	entries, ok, err := m.OnEvent("touchdown", 0.4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "landed", entries[0].Phase)
	assert.Equal(t, 0.4, entries[0].Time)
	assert.True(t, m.Terminal())
	assert.False(t, reg.Active.Friction(0))
}

func TestAlwaysChainCap(t *testing.T) {
	always := &contract.GuardSpec{Kind: contract.GuardAlways}
	m := New([]contract.Phase{
		{ID: "a", Initial: true, Transitions: []contract.Transition{{To: "b", Guard: always}}},
		{ID: "b", Transitions: []contract.Transition{{To: "a", Guard: always}}},
	}, nil)
	_, err := m.Start(0)
	assert.ErrorIs(t, err, ErrAlwaysChain)
}

func TestNoPhases(t *testing.T) {
	m := New(nil, nil)
	entries, err := m.Start(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "", m.Current())
	assert.True(t, m.Terminal())
	assert.Nil(t, m.Candidates())
	_, err = m.Fire(0, 0)
	assert.Error(t, err)
}
