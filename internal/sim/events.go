package sim

import (
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/phystrace/internal/contact"
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/geom"
	"github.com/san-kum/phystrace/internal/guard"
	"github.com/san-kum/phystrace/internal/phase"
	"github.com/san-kum/phystrace/internal/trace"
	"github.com/san-kum/phystrace/internal/world"
)

// handle resolves a group of simultaneous crossings in priority order at
// the current time. Only the first phase transition of the group fires.
func (r *run) handle(group []guard.Crossing) {
	before := r.reg.Energy(r.x)
	r.justFired = make(map[int]bool, len(group))
	transitioned := false
	for _, cr := range group {
		g := r.table.Guards[cr.Guard]
		r.justFired[cr.Guard] = true
		switch g.Source {
		case guard.SourceContact:
			r.impact(g.Pair)
		case guard.SourceRestRelease:
			r.release(g.Body, g.Other)
		case guard.SourceRestStick:
			r.stick(g.Body, g.Other)
		case guard.SourceTransition:
			if transitioned || g.Phase != r.fsm.CurrentIndex() {
				continue
			}
			transitioned = true
			entries, err := r.fsm.Fire(g.Ref, r.t)
			r.entered(entries, err)
		case guard.SourceExpected:
			kind := trace.EventGuard
			if r.c.ExpectedEvents[g.Ref].Type == contract.EventVelocityZero {
				kind = trace.EventVelocityZero
			}
			r.emit(trace.Event{Kind: kind, Participants: r.guardParticipants(&g), Pair: -1, Decl: g.Ref})
		}
	}
	r.impactLoss += before - r.reg.Energy(r.x)
}

func (r *run) guardParticipants(g *guard.Guard) []string {
	var out []string
	if g.Body >= 0 {
		out = append(out, r.reg.Bodies[g.Body].ID)
	}
	if g.Other >= 0 {
		if g.OtherSurface {
			out = append(out, r.reg.Surfaces[g.Other].ID)
		} else {
			out = append(out, r.reg.Bodies[g.Other].ID)
		}
	}
	return out
}

// impact resolves a closing contact pair. A surface contact that leaves
// slower than the resting velocity turns into a persistent contact.
func (r *run) impact(p world.Pair) {
	tol := r.c.Tolerances
	m := contact.Collide(r.reg, r.x, p, tol.Slop, r.res.DedupRadius)
	if m.Empty() {
		return
	}
	res := r.res.Resolve(m, r.reg, r.x)
	d := &r.tr.Diagnostics
	d.MaxPenetration = math.Max(d.MaxPenetration, res.MaxPenetration)
	if res.Regime == world.RegimeNone {
		return
	}
	ev := trace.Event{
		Kind:         trace.EventContact,
		Participants: r.reg.PairNames(p),
		Pair:         r.reg.PairKey(p),
		Decl:         p.Decl,
		Impulse:      [2]float64{res.NormalImpulse, res.TangentImpulse},
		PreV:         res.PreNormalVel,
		PostV:        res.PostNormalVel,
		Restitution:  res.Restitution,
		Regime:       res.Regime.String(),
		EnergyBefore: res.EnergyBefore,
		EnergyAfter:  res.EnergyAfter,
	}
	r.emit(ev)
	if p.Surface && res.PostNormalVel < tol.RestingVelocity {
		r.settle(m)
	}
}

// settle turns manifold m into a persistent contact: a circle or a single
// vertex becomes a point rest, two adjacent vertices a face rest.
func (r *run) settle(m contact.Manifold) {
	i, si := m.Pair.A, m.Pair.B
	b := &r.reg.Bodies[i]
	rs := world.Rest{Body: i, Surface: si, Kind: world.RestPoint, Vertex: -1}
	if !b.IsCircle() {
		if v0, v1, ok := adjacentVertices(len(b.Local), m.Points); ok {
			rs.Kind, rs.Face = world.RestFace, [2]int{v0, v1}
			r.reg.SetOmega(r.x, i, 0)
		} else {
			deepest := m.Points[0]
			for _, pt := range m.Points[1:] {
				if pt.Depth > deepest.Depth {
					deepest = pt
				}
			}
			rs.Vertex = deepest.Vertex
		}
	}
	r.reg.AddRest(rs)
	k := r.reg.RestOn(i, si)
	r.zeroAlong(k, r.reg.Surfaces[si].Normal)

	if !(r.reg.RestForces(r.x, r.t)[k].Normal > 0) {
		// Nothing presses the body on: it leaves the surface freely.
		r.reg.RemoveRest(k)
		return
	}
	if slip := r.reg.Slip(r.x, k); math.Abs(slip) > r.c.Tolerances.VelocityEpsilon {
		r.reg.Rests[k].Sliding = true
		r.reg.Rests[k].Sign = math.Copysign(1, slip)
	}
	r.dirty = true
	r.log.Debug("persistent contact",
		zap.String("body", b.ID),
		zap.String("surface", r.reg.Surfaces[si].ID),
		zap.Bool("sliding", r.reg.Rests[k].Sliding),
		zap.Float64("t", r.t))
}

func adjacentVertices(n int, pts []contact.Point) (int, int, bool) {
	for a := range pts {
		for b := a + 1; b < len(pts); b++ {
			va, vb := pts[a].Vertex, pts[b].Vertex
			if va < 0 || vb < 0 {
				continue
			}
			if (va+1)%n == vb {
				return va, vb, true
			}
			if (vb+1)%n == va {
				return vb, va, true
			}
		}
	}
	return 0, 0, false
}

// zeroAlong applies the impulse at rest k's contact point that removes the
// point's velocity along dir.
func (r *run) zeroAlong(k int, dir geom.Vec) {
	rs := &r.reg.Rests[k]
	b := &r.reg.Bodies[rs.Body]
	point, arm := r.reg.RestArm(r.x, k)
	invI := b.InvI
	if rs.Kind == world.RestFace {
		invI = 0
	}
	rd := geom.Cross(arm, dir)
	k11 := b.InvMass + invI*rd*rd
	if k11 == 0 {
		return
	}
	j := dir.Mul(-r.reg.PointVel(r.x, rs.Body, point).Dot(dir) / k11)
	r.reg.SetVel(r.x, rs.Body, r.reg.Vel(r.x, rs.Body).Add(j.Mul(b.InvMass)))
	r.reg.SetOmega(r.x, rs.Body, r.reg.Omega(r.x, rs.Body)+invI*geom.Cross(arm, j))
}

func (r *run) restEvent(kind trace.EventKind, k int, regime world.Regime) trace.Event {
	rs := &r.reg.Rests[k]
	p := r.reg.RestPair(k)
	return trace.Event{
		Kind:         kind,
		Participants: []string{r.reg.Bodies[rs.Body].ID, r.reg.Surfaces[rs.Surface].ID},
		Pair:         r.reg.PairKey(p),
		Decl:         p.Decl,
		Regime:       regime.String(),
	}
}

// release ends the persistent contact of body on surface.
func (r *run) release(body, surface int) {
	k := r.reg.RestOn(body, surface)
	if k < 0 {
		return
	}
	ev := r.restEvent(trace.EventSeparation, k, world.RegimeNone)
	r.reg.RemoveRest(k)
	r.dirty = true
	r.emit(ev)
}

// stick handles a sliding contact whose slip velocity reached zero. It
// sticks when static friction can hold it, and otherwise slides on in the
// direction the forces now push.
func (r *run) stick(body, surface int) {
	k := r.reg.RestOn(body, surface)
	if k < 0 || !r.reg.Rests[k].Sliding {
		return
	}
	r.zeroAlong(k, r.reg.Surfaces[surface].Tangent)
	r.reg.Rests[k].Sliding = false
	r.dirty = true

	rf := r.reg.RestForces(r.x, r.t)[k]
	if rf.Regime == world.RegimeKinetic {
		r.reg.Rests[k].Sliding = true
		r.reg.Rests[k].Sign = -math.Copysign(1, rf.Tangent)
		return
	}
	r.emit(r.restEvent(trace.EventStick, k, world.RegimeStatic))
}

// afterStep checks what only shows at step boundaries: sticking contacts
// that started to slip and pairs already overlapping while still closing.
// It reports whether the state or the contact set changed.
func (r *run) afterStep() bool {
	tol := r.c.Tolerances
	before := r.reg.Energy(r.x)
	changed := false
	for k := range r.reg.Rests {
		rs := &r.reg.Rests[k]
		if rs.Sliding {
			continue
		}
		if slip := r.reg.Slip(r.x, k); math.Abs(slip) > tol.VelocityEpsilon {
			rs.Sliding = true
			rs.Sign = math.Copysign(1, slip)
			r.dirty, changed = true, true
			r.emit(r.restEvent(trace.EventSlip, k, world.RegimeKinetic))
		}
	}
	for _, p := range r.reg.Pairs {
		if r.reg.Gap(r.x, p) >= 0 || r.reg.ApproachSpeed(r.x, p) >= 0 {
			continue
		}
		r.impact(p)
		changed = true
	}
	if changed {
		r.impactLoss += before - r.reg.Energy(r.x)
	}
	return changed
}

// initialContacts makes bodies that start on a surface without moving
// into it persistent contacts.
func (r *run) initialContacts() {
	tol := r.c.Tolerances
	for _, p := range r.reg.Pairs {
		if !p.Surface {
			continue
		}
		if g, _ := r.reg.SurfaceGap(r.x, p.A, p.B, nil); g > tol.Slop {
			continue
		}
		if math.Abs(r.reg.ApproachSpeed(r.x, p)) > tol.RestingVelocity {
			continue
		}
		m := contact.Collide(r.reg, r.x, p, tol.Slop, r.res.DedupRadius)
		if !m.Empty() {
			r.settle(m)
		}
	}
}

// emit stamps and records an event, names it after the expected events it
// matches and feeds those names to the phase machine.
func (r *run) emit(ev trace.Event) {
	ev.Seq = len(r.tr.Events)
	ev.Time = r.t
	ev.Phase = r.fsm.Current()
	ev.Names = r.match(&ev)
	r.tr.Events = append(r.tr.Events, ev)
	r.log.Debug("event",
		zap.String("kind", string(ev.Kind)),
		zap.Strings("participants", ev.Participants),
		zap.Strings("names", ev.Names),
		zap.Float64("t", ev.Time))

	if r.depth > phase.MaxChain {
		r.warn("W_EVENT_CHAIN", "event-triggered transitions did not settle")
		return
	}
	r.depth++
	defer func() { r.depth-- }()
	for _, name := range ev.Names {
		if entries, ok, err := r.fsm.OnEvent(name, r.t); ok {
			r.entered(entries, err)
		}
	}
}

func (r *run) entered(entries []phase.Entry, err error) {
	if len(entries) > 0 {
		r.dirty = true
	}
	for _, e := range entries {
		r.emit(trace.Event{Kind: trace.EventPhaseEnter, Participants: []string{e.Phase}, Pair: -1, Decl: -1})
	}
	if err != nil {
		r.warn("W_PHASE_CHAIN", err.Error())
	}
}

// match returns the expected events ev satisfies at their declared
// occurrence.
func (r *run) match(ev *trace.Event) []string {
	var names []string
	for i, want := range r.c.ExpectedEvents {
		if string(want.Type) != string(ev.Kind) {
			continue
		}
		switch want.Type {
		case contract.EventGuard, contract.EventVelocityZero:
			if ev.Decl != i {
				continue
			}
		default:
			if !sameParticipants(want.Participants, ev.Participants) {
				continue
			}
		}
		r.matches[i]++
		if r.matches[i] == max(want.Occurrence, 1) {
			names = append(names, want.Name)
		}
	}
	return names
}

func sameParticipants(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for _, w := range want {
		found := false
		for _, g := range got {
			if w == g {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
