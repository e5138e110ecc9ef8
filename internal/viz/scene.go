package viz

import (
	"math"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/geom"
	"github.com/san-kum/phystrace/internal/trace"
)

type shape struct {
	radius float64
	local  []geom.Vec
}

type plane struct {
	point, normal geom.Vec
	bounds        *[2]geom.Vec
}

// Scene draws trace frames using the geometry of the contract that
// produced them.
type Scene struct {
	shapes   []shape
	surfaces []plane
	springs  []contract.Spring
	index    map[string]int
	view     Viewport
}

// NewScene sizes the view to every body position in tr, for a canvas of w
// by h cells.
func NewScene(c *contract.Contract, tr *trace.Trace, w, h int) *Scene {
	s := &Scene{index: make(map[string]int), springs: c.Constraints.Springs}
	for i, b := range c.Bodies {
		s.index[b.ID] = i
		switch b.Shape.Kind {
		case contract.ShapeCircle:
			s.shapes = append(s.shapes, shape{radius: b.Shape.Radius})
		case contract.ShapeBox:
			s.shapes = append(s.shapes, shape{local: geom.BoxVertices(b.Shape.Width, b.Shape.Height)})
		default:
			vs := make([]geom.Vec, len(b.Shape.Vertices))
			for k, v := range b.Shape.Vertices {
				vs[k] = v.V()
			}
			s.shapes = append(s.shapes, shape{local: vs})
		}
	}
	for _, sf := range c.Surfaces {
		n := sf.Normal.V()
		if sf.Angle != nil {
			n = geom.NormalFromAngle(*sf.Angle)
		}
		p := plane{point: sf.Point.V(), normal: n}
		if sf.Bounds != nil {
			p.bounds = &[2]geom.Vec{sf.Bounds.Start.V(), sf.Bounds.End.V()}
		}
		s.surfaces = append(s.surfaces, p)
	}

	lo := geom.V(math.Inf(1), math.Inf(1))
	hi := geom.V(math.Inf(-1), math.Inf(-1))
	grow := func(p geom.Vec, r float64) {
		lo = geom.V(math.Min(lo[0], p[0]-r), math.Min(lo[1], p[1]-r))
		hi = geom.V(math.Max(hi[0], p[0]+r), math.Max(hi[1], p[1]+r))
	}
	for _, f := range tr.Frames {
		for i := range s.shapes {
			grow(geom.V(f.Q[3*i], f.Q[3*i+1]), s.shapes[i].extent())
		}
	}
	for _, p := range s.surfaces {
		if p.bounds != nil {
			grow(p.bounds[0], 0)
			grow(p.bounds[1], 0)
		} else {
			grow(p.point, 0)
		}
	}
	if math.IsInf(lo[0], 1) {
		lo, hi = geom.V(-1, -1), geom.V(1, 1)
	}
	s.view = Fit(lo, hi, w, h)
	return s
}

func (sh shape) extent() float64 {
	r := sh.radius
	for _, v := range sh.local {
		r = math.Max(r, v.Len())
	}
	return r
}

// Draw renders frame f onto c.
func (s *Scene) Draw(c *Canvas, f *trace.Frame) {
	c.Clear()
	v := s.view
	for _, p := range s.surfaces {
		if p.bounds != nil {
			c.Segment(v, p.bounds[0], p.bounds[1])
			continue
		}
		// An unbounded plane spans the view; clip it to twice its diagonal.
		mid := v.Min.Add(v.Max).Mul(0.5)
		foot := mid.Sub(p.normal.Mul(mid.Sub(p.point).Dot(p.normal)))
		t := geom.V(p.normal[1], -p.normal[0]).Mul(v.Max.Sub(v.Min).Len())
		c.Segment(v, foot.Sub(t), foot.Add(t))
	}
	pos := func(i int) (geom.Vec, float64) {
		return geom.V(f.Q[3*i], f.Q[3*i+1]), f.Q[3*i+2]
	}
	for _, sp := range s.springs {
		a, ok := s.index[sp.A]
		if !ok {
			continue
		}
		pa, th := pos(a)
		end := sp.AnchorB.V()
		if b, ok := s.index[sp.B]; ok {
			pb, thb := pos(b)
			end = geom.ToWorld(sp.AnchorB.V(), pb, thb)
		}
		c.Segment(v, geom.ToWorld(sp.AnchorA.V(), pa, th), end)
	}
	for i, sh := range s.shapes {
		p, th := pos(i)
		if sh.local == nil {
			x, y := v.Dot(p)
			c.DrawCircle(x, y, math.Max(1, v.Len(sh.radius)))
			// Spoke so rotation is visible.
			c.Segment(v, p, geom.ToWorld(geom.V(sh.radius, 0), p, th))
			continue
		}
		for k := range sh.local {
			a := geom.ToWorld(sh.local[k], p, th)
			b := geom.ToWorld(sh.local[(k+1)%len(sh.local)], p, th)
			c.Segment(v, a, b)
		}
	}
}
