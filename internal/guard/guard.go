// Package guard evaluates scalar guard functions over the state, detects
// their zero crossings and locates them in time by bisection.
package guard

import (
	"fmt"
	"math"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/geom"
	"github.com/san-kum/phystrace/internal/world"
)

type Kind int

const (
	KindContact Kind = iota
	KindSeparation
	KindVelocityZero
	KindTangentialVelocity
	KindPosition
	KindDistance
	KindTime
	KindAlways
)

var kindNames = [...]string{"contact", "separation", "velocity_zero", "tangential_velocity", "position", "distance", "time", "always"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(k contract.GuardKind) (Kind, bool) {
	for i, name := range kindNames {
		if string(k) == name {
			return Kind(i), true
		}
	}
	return 0, false
}

type Direction int

const (
	Falling Direction = iota
	Rising
	Either
)

func (d Direction) String() string {
	switch d {
	case Falling:
		return contract.DirectionFalling
	case Rising:
		return contract.DirectionRising
	}
	return contract.DirectionEither
}

// DefaultDirection is the crossing a guard of kind k reports when the
// Contract leaves direction empty.
func DefaultDirection(k Kind) Direction {
	switch k {
	case KindContact:
		return Falling
	case KindSeparation, KindTime:
		return Rising
	}
	return Either
}

func ParseDirection(s string, k Kind) Direction {
	switch s {
	case contract.DirectionFalling:
		return Falling
	case contract.DirectionRising:
		return Rising
	case contract.DirectionEither:
		return Either
	}
	return DefaultDirection(k)
}

// Source tells the engine how to handle a located crossing.
type Source int

const (
	SourceContact    Source = iota // allowed contact pair closing
	SourceRestRelease              // persistent contact losing its normal force
	SourceRestStick                // sliding contact reaching zero slip
	SourceTransition               // phase transition guard
	SourceExpected                 // expected event watched by a guard
)

// Guard is one resolved entry of the dispatch table. Indices refer to the
// Registry arenas; Other is a surface index when OtherSurface is set.
type Guard struct {
	Name         string
	Kind         Kind
	Dir          Direction
	Source       Source
	Body         int
	Other        int
	OtherSurface bool
	Axis         int
	Value        float64
	Point        geom.Vec
	HasPoint     bool
	Pair         world.Pair
	Rest         int
	Phase        int // owning phase of a transition guard
	Ref          int // transition or expected-event index
	Decl         int
}

// Resolve compiles a declared guard against the registry.
func Resolve(reg *world.Registry, spec *contract.GuardSpec) Guard {
	k, ok := ParseKind(spec.Kind)
	if !ok {
		panic(fmt.Sprintf("guard: unknown kind %q in a validated contract", spec.Kind))
	}
	g := Guard{
		Name:  string(spec.Kind),
		Kind:  k,
		Dir:   ParseDirection(spec.Direction, k),
		Body:  -1,
		Other: -1,
		Rest:  -1,
		Value: spec.Value,
		Axis:  axisIndex(spec.Axis),
	}
	if spec.Body != "" {
		g.Body = reg.MustBody(spec.Body)
		g.Name += ":" + spec.Body
	}
	if spec.Other != "" {
		if s, ok := reg.Surface(spec.Other); ok {
			g.Other, g.OtherSurface = s, true
		} else {
			g.Other = reg.MustBody(spec.Other)
		}
		g.Name += "/" + spec.Other
	}
	if spec.Point != nil {
		g.Point, g.HasPoint = spec.Point.V(), true
	}
	return g
}

func axisIndex(axis string) int {
	switch axis {
	case "x":
		return 0
	case "angle", "omega":
		return 2
	}
	return 1
}

// Table is the flat guard dispatch table evaluated every step.
type Table struct {
	Guards []Guard
}

func (tb *Table) Len() int { return len(tb.Guards) }

func (tb *Table) Add(g Guard) {
	g.Decl = len(tb.Guards)
	tb.Guards = append(tb.Guards, g)
}

// Eval writes every guard value at (x, t) into out, growing it if needed.
func (tb *Table) Eval(reg *world.Registry, x dynamo.State, t float64, out []float64) []float64 {
	if cap(out) < len(tb.Guards) {
		out = make([]float64, len(tb.Guards))
	}
	out = out[:len(tb.Guards)]
	ev := evaluator{reg: reg, x: x, t: t}
	for i := range tb.Guards {
		out[i] = ev.value(&tb.Guards[i])
	}
	return out
}

// Value evaluates a single guard.
func (tb *Table) Value(i int, reg *world.Registry, x dynamo.State, t float64) float64 {
	ev := evaluator{reg: reg, x: x, t: t}
	return ev.value(&tb.Guards[i])
}

type evaluator struct {
	reg    *world.Registry
	x      dynamo.State
	t      float64
	forces []world.RestForce
}

func (ev *evaluator) restForces() []world.RestForce {
	if ev.forces == nil {
		ev.forces = ev.reg.RestForces(ev.x, ev.t)
	}
	return ev.forces
}

func (ev *evaluator) value(g *Guard) float64 {
	reg, x := ev.reg, ev.x
	switch g.Kind {
	case KindContact:
		if g.Source == SourceContact {
			return reg.Gap(x, g.Pair)
		}
		return ev.gap(g)
	case KindSeparation:
		if g.Source == SourceRestRelease {
			return ev.release(g.Rest)
		}
		if g.OtherSurface {
			if k := reg.RestOn(g.Body, g.Other); k >= 0 {
				return -ev.release(k)
			}
		}
		return ev.gap(g)
	case KindTangentialVelocity:
		if g.Source == SourceRestStick {
			return reg.Slip(x, g.Rest)
		}
		return ev.tangential(g)
	case KindVelocityZero:
		if g.Axis == 2 {
			return reg.Omega(x, g.Body) - g.Value
		}
		return reg.Vel(x, g.Body)[g.Axis] - g.Value
	case KindPosition:
		if g.Axis == 2 {
			return reg.Angle(x, g.Body) - g.Value
		}
		return reg.Pos(x, g.Body)[g.Axis] - g.Value
	case KindDistance:
		target := g.Point
		if !g.HasPoint {
			target = reg.Pos(x, g.Other)
		}
		return reg.Pos(x, g.Body).Sub(target).Len() - g.Value
	case KindTime:
		return ev.t - g.Value
	}
	return 1
}

func (ev *evaluator) gap(g *Guard) float64 {
	if g.OtherSurface {
		d, _ := ev.reg.SurfaceGap(ev.x, g.Body, g.Other, nil)
		return d
	}
	return ev.reg.BodyGap(ev.x, g.Body, g.Other)
}

// release is positive while rest k is pressed onto a surface and inside its
// bounds; it reaches zero when the normal force vanishes or the contact point
// leaves a bounded plane.
func (ev *evaluator) release(k int) float64 {
	rf := ev.restForces()[k]
	rs := &ev.reg.Rests[k]
	s := &ev.reg.Surfaces[rs.Surface]
	v := rf.Normal
	if s.Bounded {
		u := rf.Point.Sub(s.Point).Dot(s.Tangent)
		v = math.Min(v, math.Min(u-s.Start, s.End-u))
	}
	return v
}

func (ev *evaluator) tangential(g *Guard) float64 {
	v := ev.reg.Vel(ev.x, g.Body)
	if g.OtherSurface {
		return v.Dot(ev.reg.Surfaces[g.Other].Tangent)
	}
	rel := v.Sub(ev.reg.Vel(ev.x, g.Other))
	n, _ := geom.Unit(ev.reg.Pos(ev.x, g.Body).Sub(ev.reg.Pos(ev.x, g.Other)))
	return rel.Dot(geom.Perp(n))
}
