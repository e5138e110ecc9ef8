// Package world compiles a validated Contract into a per-run Registry:
// index-addressed arenas of bodies, surfaces, springs and forces, plus the
// equations of motion over the flat state vector.
package world

import (
	"fmt"
	"sort"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/geom"
)

type Body struct {
	ID       string
	Index    int
	Shape    contract.ShapeKind
	Radius   float64
	Local    []geom.Vec // CCW vertices about the center of mass; nil for circles
	Mass     float64
	InvMass  float64
	Inertia  float64
	InvI     float64
	Bound    float64 // bounding radius about the center of mass
	Material *contract.Material
}

func (b *Body) IsCircle() bool { return b.Shape == contract.ShapeCircle }

type Surface struct {
	ID       string
	Index    int
	Point    geom.Vec
	Normal   geom.Vec
	Tangent  geom.Vec
	Bounded  bool
	Start    float64 // extent along Tangent, measured from Point
	End      float64
	Material *contract.Material
}

type Spring struct {
	ID      string
	A, B    int // B < 0 anchors to the world
	AnchorA geom.Vec
	AnchorB geom.Vec
	K, C    float64
	Rest    float64
}

type Force struct {
	ID     string
	Kind   contract.ForceKind
	Body   int
	Vector geom.Vec
	Coef   float64
}

// Pair is an allowed contact between body A and either body B or surface B.
type Pair struct {
	A, B    int
	Surface bool
	Decl    int
}

// Registry is built once per run and owned by that run.
type Registry struct {
	Bodies   []Body
	Surfaces []Surface
	Springs  []Spring
	Forces   []Force
	Pairs    []Pair

	Gravity   geom.Vec
	Constants contract.Constants
	Tol       contract.Tolerances

	Active *Activation
	Rests  []Rest

	bodyIdx    map[string]int
	surfaceIdx map[string]int
	forceIdx   map[string]int
	springIdx  map[string]int
}

// Compile resolves every id reference of c into arena indices. c must be the
// normalized output of validation; a dangling reference panics.
func Compile(c *contract.Contract) *Registry {
	r := &Registry{
		Gravity:    c.World.Gravity.V(),
		Constants:  c.World.Constants.Clone(),
		Tol:        c.Tolerances,
		bodyIdx:    make(map[string]int, len(c.Bodies)),
		surfaceIdx: make(map[string]int, len(c.Surfaces)),
		forceIdx:   make(map[string]int, len(c.Forces)),
		springIdx:  make(map[string]int, len(c.Constraints.Springs)),
	}

	for i, cb := range c.Bodies {
		r.bodyIdx[cb.ID] = i
		r.Bodies = append(r.Bodies, compileBody(i, cb))
	}
	for i, cs := range c.Surfaces {
		r.surfaceIdx[cs.ID] = i
		r.Surfaces = append(r.Surfaces, compileSurface(i, cs))
	}
	for i, cs := range c.Constraints.Springs {
		r.springIdx[cs.ID] = i
		b := -1
		if cs.B != "" {
			b = r.MustBody(cs.B)
		}
		r.Springs = append(r.Springs, Spring{
			ID: cs.ID, A: r.MustBody(cs.A), B: b,
			AnchorA: cs.AnchorA.V(), AnchorB: cs.AnchorB.V(),
			K: cs.Stiffness, C: cs.Damping, Rest: cs.RestLength,
		})
	}
	for i, cf := range c.Forces {
		r.forceIdx[cf.ID] = i
		r.Forces = append(r.Forces, Force{
			ID: cf.ID, Kind: cf.Kind, Body: r.MustBody(cf.Body),
			Vector: cf.Vector.V(), Coef: cf.Coefficient,
		})
	}
	r.compilePairs(c)
	r.Active = newActivation(c, r)
	return r
}

func compileBody(i int, cb contract.Body) Body {
	b := Body{
		ID:       cb.ID,
		Index:    i,
		Shape:    cb.Shape.Kind,
		Radius:   cb.Shape.Radius,
		Mass:     cb.Mass,
		InvMass:  1 / cb.Mass,
		Inertia:  cb.Inertia,
		Material: cb.Material,
	}
	switch cb.Shape.Kind {
	case contract.ShapeBox:
		b.Local = geom.BoxVertices(cb.Shape.Width, cb.Shape.Height)
	case contract.ShapePolygon:
		b.Local = make([]geom.Vec, len(cb.Shape.Vertices))
		for j, v := range cb.Shape.Vertices {
			b.Local[j] = v.V()
		}
	}
	if cb.FixedRotation || cb.Inertia <= 0 {
		b.Inertia = 0
	} else {
		b.InvI = 1 / cb.Inertia
	}
	b.Bound = b.Radius
	for _, v := range b.Local {
		if l := v.Len(); l > b.Bound {
			b.Bound = l
		}
	}
	return b
}

func compileSurface(i int, cs contract.Surface) Surface {
	n, _ := geom.Unit(cs.Normal.V())
	s := Surface{
		ID:       cs.ID,
		Index:    i,
		Point:    cs.Point.V(),
		Normal:   n,
		Tangent:  geom.V(n[1], -n[0]),
		Material: cs.Material,
	}
	if cs.Bounds != nil {
		s.Bounded = true
		s.Start = cs.Bounds.Start.V().Sub(s.Point).Dot(s.Tangent)
		s.End = cs.Bounds.End.V().Sub(s.Point).Dot(s.Tangent)
	}
	return s
}

func (r *Registry) compilePairs(c *contract.Contract) {
	seen := make(map[[3]int]bool)
	decl := 0
	for i, cb := range c.Bodies {
		for _, id := range cb.Contacts {
			var p Pair
			if s, ok := r.surfaceIdx[id]; ok {
				p = Pair{A: i, B: s, Surface: true}
			} else {
				j := r.MustBody(id)
				p = Pair{A: min(i, j), B: max(i, j)}
			}
			key := [3]int{p.A, p.B, boolInt(p.Surface)}
			if seen[key] {
				continue
			}
			seen[key] = true
			p.Decl = decl
			decl++
			r.Pairs = append(r.Pairs, p)
		}
	}
	sort.SliceStable(r.Pairs, func(i, j int) bool { return r.PairKey(r.Pairs[i]) < r.PairKey(r.Pairs[j]) })
}

// PairKey orders pairs by lower body index, bodies before surfaces.
func (r *Registry) PairKey(p Pair) int {
	b := p.B
	if p.Surface {
		b += len(r.Bodies)
	}
	return p.A*(len(r.Bodies)+len(r.Surfaces)) + b
}

// PairNames returns the participant ids of p.
func (r *Registry) PairNames(p Pair) []string {
	if p.Surface {
		return []string{r.Bodies[p.A].ID, r.Surfaces[p.B].ID}
	}
	return []string{r.Bodies[p.A].ID, r.Bodies[p.B].ID}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *Registry) Body(id string) (int, bool) {
	i, ok := r.bodyIdx[id]
	return i, ok
}

func (r *Registry) Surface(id string) (int, bool) {
	i, ok := r.surfaceIdx[id]
	return i, ok
}

func (r *Registry) MustBody(id string) int {
	i, ok := r.bodyIdx[id]
	if !ok {
		panic(fmt.Sprintf("world: body %q missing from a validated contract", id))
	}
	return i
}

// BodyIDs lists body ids in arena order.
func (r *Registry) BodyIDs() []string {
	ids := make([]string, len(r.Bodies))
	for i, b := range r.Bodies {
		ids[i] = b.ID
	}
	return ids
}
