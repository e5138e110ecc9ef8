package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/phystrace/internal/contact"
	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/dynamo"
	"github.com/san-kum/phystrace/internal/guard"
	"github.com/san-kum/phystrace/internal/metrics"
	"github.com/san-kum/phystrace/internal/phase"
	"github.com/san-kum/phystrace/internal/trace"
	"github.com/san-kum/phystrace/internal/world"
)

// run owns every piece of mutable state of one simulation.
type run struct {
	e   *Engine
	c   *contract.Contract
	log *zap.Logger

	reg  *world.Registry
	res  *contact.Resolver
	fsm  *phase.Machine
	st   *stepper
	pool *StatePool

	table     guard.Table
	dirty     bool
	gOld      []float64
	gNew      []float64
	justFired map[int]bool

	x        dynamo.State
	t        float64
	h        float64
	tEnd     float64
	steps    int
	maxSteps int

	impactLoss float64
	matches    []int
	depth      int

	tr   *trace.Trace
	mets []metrics.Metric
}

func newRun(e *Engine, c *contract.Contract) *run {
	reg := world.Compile(c)
	kind := c.Simulation.Integrator
	if e.integrator != "" {
		kind = e.integrator
	}
	maxSteps := c.Simulation.MaxSteps
	if e.maxSteps > 0 {
		maxSteps = e.maxSteps
	}
	r := &run{
		e:        e,
		c:        c,
		log:      e.log.With(zap.String("contract", c.Name)),
		reg:      reg,
		res:      contact.NewResolver(c.Tolerances.Slop, c.Tolerances.VelocityEpsilon),
		fsm:      phase.New(c.Phases, reg.Active),
		st:       newStepper(kind, c.Simulation, c.Tolerances.IntegratorTol, reg.Split()),
		pool:     NewStatePool(reg.StateDim()),
		x:        reg.InitialState(c),
		h:        c.Simulation.Dt,
		tEnd:     c.Simulation.TEnd,
		maxSteps: maxSteps,
		matches:  make([]int, len(c.ExpectedEvents)),
		tr: &trace.Trace{
			Name:    c.Name,
			BodyIDs: reg.BodyIDs(),
			Status:  trace.StatusOK,
			Metrics: make(map[string]float64),
		},
	}
	for _, f := range e.metrics {
		r.mets = append(r.mets, f())
	}
	return r
}

func (r *run) loop(ctx context.Context) {
	r.log.Debug("run started",
		zap.Int("bodies", len(r.reg.Bodies)),
		zap.Int("pairs", len(r.reg.Pairs)),
		zap.Float64("t_end", r.tEnd))

	entries, err := r.fsm.Start(0)
	r.entered(entries, err)
	r.initialContacts()
	r.rebuild()
	r.gOld = r.table.Eval(r.reg, r.x, r.t, r.gOld)
	r.frame()

	for r.t < r.tEnd {
		if err := ctx.Err(); err != nil {
			r.abort(trace.StatusCanceled, err)
			return
		}
		if r.steps >= r.maxSteps {
			r.abort(trace.StatusStepLimit, fmt.Errorf("step cap %d reached at t=%g", r.maxSteps, r.t))
			return
		}
		r.steps++

		h := math.Min(r.h, r.tEnd-r.t)
		res, err := r.st.advance(r.reg, r.x, r.t, h)
		if err != nil {
			r.abort(trace.StatusFailed, &dynamo.IntegrationFailure{Step: r.steps, Time: r.t, H: res.H, Wrapped: err})
			return
		}
		r.diagnose(res)

		tNew := r.t + res.H
		if res.H == r.tEnd-r.t {
			tNew = r.tEnd
		}
		r.gNew = r.table.Eval(r.reg, res.X, tNew, r.gNew)
		crossings := r.scan(res.X, tNew)
		r.h = res.HNext

		if len(crossings) == 0 {
			r.x, r.t = res.X, tNew
			r.gOld, r.gNew = r.gNew, r.gOld
			r.justFired = nil
			if r.afterStep() {
				r.refresh()
			}
			r.frame()
			continue
		}

		group := guard.Simultaneous(crossings, r.c.Tolerances.RootTimeTol)
		if tStar := guard.GroupTime(group); tStar > r.t {
			x := r.st.to(r.reg, r.x, r.t, tStar-r.t)
			if !x.IsValid() {
				r.abort(trace.StatusFailed, &dynamo.IntegrationFailure{Step: r.steps, Time: r.t, H: tStar - r.t, Wrapped: dynamo.ErrInvalidState})
				return
			}
			r.x, r.t = x, tStar
		}
		r.frame()
		r.handle(group)
		r.afterStep()
		r.frame()
		r.refresh()
	}
}

// scan locates every live guard that crossed between (r.x, r.t) and
// (xNew, tNew), bisecting on the linear interpolation of the two states.
func (r *run) scan(xNew dynamo.State, tNew float64) []guard.Crossing {
	var out []guard.Crossing
	scratch := r.pool.Get()
	defer r.pool.Put(scratch)

	span := tNew - r.t
	tol := r.c.Tolerances.RootTimeTol
	for i := range r.table.Guards {
		g := &r.table.Guards[i]
		if !r.live(g) || !guard.Crossed(r.gOld[i], r.gNew[i], g.Dir) {
			continue
		}
		f := func(s float64) float64 {
			dynamo.LerpInto(scratch, r.x, xNew, (s-r.t)/span)
			return r.table.Value(i, r.reg, scratch, s)
		}
		root, warn := guard.Locate(g.Name, f, r.t, tNew, r.gOld[i], g.Dir, tol, r.e.bisectIter)
		if warn != nil {
			r.warn("W_EVENT_DROPPED", warn.Error(), zap.String("guard", g.Name))
			continue
		}
		if r.justFired[i] && root-r.t <= tol {
			continue
		}
		out = append(out, guard.Crossing{Guard: i, Time: root, Priority: guard.PriorityOf(g), PairKey: r.pairKey(g)})
	}
	return out
}

// live reports whether a guard is armed. Transition guards only watch while
// their phase is current.
func (r *run) live(g *guard.Guard) bool {
	if g.Source == guard.SourceTransition {
		return g.Phase == r.fsm.CurrentIndex()
	}
	return true
}

func (r *run) pairKey(g *guard.Guard) int {
	switch g.Source {
	case guard.SourceContact:
		return r.reg.PairKey(g.Pair)
	case guard.SourceRestRelease, guard.SourceRestStick:
		return r.reg.PairKey(world.Pair{A: g.Body, B: g.Other, Surface: true})
	}
	return math.MaxInt32
}

// rebuild compiles the guard table: contact pairs, persistent contacts,
// transitions out of the current phase, then guard-watched expected events.
func (r *run) rebuild() {
	reg := r.reg
	r.table = guard.Table{}
	for _, p := range reg.Pairs {
		names := reg.PairNames(p)
		r.table.Add(guard.Guard{
			Name: "contact:" + names[0] + "/" + names[1], Kind: guard.KindContact, Dir: guard.Falling,
			Source: guard.SourceContact, Pair: p, Body: p.A, Other: p.B, OtherSurface: p.Surface, Rest: -1,
		})
	}
	for k, rs := range reg.Rests {
		name := reg.Bodies[rs.Body].ID + "/" + reg.Surfaces[rs.Surface].ID
		r.table.Add(guard.Guard{
			Name: "release:" + name, Kind: guard.KindSeparation, Dir: guard.Falling,
			Source: guard.SourceRestRelease, Body: rs.Body, Other: rs.Surface, OtherSurface: true, Rest: k,
		})
		if rs.Sliding {
			r.table.Add(guard.Guard{
				Name: "stick:" + name, Kind: guard.KindTangentialVelocity, Dir: guard.Either,
				Source: guard.SourceRestStick, Body: rs.Body, Other: rs.Surface, OtherSurface: true, Rest: k,
			})
		}
	}
	for _, cand := range r.fsm.Candidates() {
		g := guard.Resolve(reg, cand.Guard)
		g.Name = "transition:" + r.fsm.Current() + "->" + cand.To
		g.Source, g.Phase, g.Ref = guard.SourceTransition, r.fsm.CurrentIndex(), cand.Index
		r.table.Add(g)
	}
	for i, want := range r.c.ExpectedEvents {
		var spec *contract.GuardSpec
		switch want.Type {
		case contract.EventGuard:
			spec = want.Guard
		case contract.EventVelocityZero:
			spec = &contract.GuardSpec{Kind: contract.GuardVelocityZero, Body: want.Participants[0], Axis: want.Axis, Direction: contract.DirectionEither}
		default:
			continue
		}
		g := guard.Resolve(reg, spec)
		g.Name = want.Name
		g.Source, g.Ref = guard.SourceExpected, i
		r.table.Add(g)
	}
	r.dirty = false
	r.justFired = nil
}

func (r *run) refresh() {
	if r.dirty {
		r.rebuild()
	}
	r.gOld = r.table.Eval(r.reg, r.x, r.t, r.gOld)
}

func (r *run) diagnose(res dynamo.StepResult) {
	d := &r.tr.Diagnostics
	d.Accepted++
	d.Rejected += res.Rejected
	d.StepSizes = append(d.StepSizes, res.H)
	d.StepErrors = append(d.StepErrors, res.ErrEst)
	if res.Forced {
		d.Forced++
		r.warn("W_STEP_FORCED", fmt.Sprintf("step forced at h=%g with error %g", res.H, res.ErrEst),
			zap.Float64("h", res.H), zap.Float64("err", res.ErrEst))
	}
}

func (r *run) warn(code, msg string, fields ...zap.Field) {
	r.tr.Diagnostics.Warnings = append(r.tr.Diagnostics.Warnings, trace.Warning{Time: r.t, Code: code, Message: msg})
	r.log.Warn(msg, append(fields, zap.String("code", code), zap.Float64("t", r.t))...)
}

func (r *run) abort(status trace.Status, err error) {
	r.tr.Status = status
	r.tr.Failure = err.Error()
	if status == trace.StatusFailed {
		r.log.Error("run failed", zap.Error(err), zap.Float64("t", r.t), zap.Int("step", r.steps))
		return
	}
	r.log.Warn("run aborted", zap.String("status", string(status)), zap.Error(err), zap.Float64("t", r.t))
}

// frame appends the current state to the trace.
func (r *run) frame() {
	reg, x := r.reg, r.x
	split := reg.Split()
	f := trace.Frame{
		Time:            r.t,
		Q:               append([]float64(nil), x[:split]...),
		V:               append([]float64(nil), x[split:2*split]...),
		Phase:           r.fsm.Current(),
		Kinetic:         reg.Kinetic(x),
		Potential:       reg.Potential(x),
		Dissipated:      reg.Dissipated(x),
		ImpactLoss:      r.impactLoss,
		AngularMomentum: reg.AngularMomentum(x),
	}
	f.Energy = f.Kinetic + f.Potential
	p := reg.Momentum(x)
	f.Momentum = [2]float64{p[0], p[1]}
	if len(reg.Rests) > 0 {
		forces := reg.RestForces(x, r.t)
		for k, rs := range reg.Rests {
			f.Contacts = append(f.Contacts, trace.Contact{
				Body:    reg.Bodies[rs.Body].ID,
				Surface: reg.Surfaces[rs.Surface].ID,
				Regime:  forces[k].Regime.String(),
				Normal:  forces[k].Normal,
			})
		}
	}
	r.trackPenetration()
	r.tr.Frames = append(r.tr.Frames, f)
	last := &r.tr.Frames[len(r.tr.Frames)-1]
	for _, m := range r.mets {
		m.Observe(last)
	}
}

func (r *run) trackPenetration() {
	d := &r.tr.Diagnostics
	for _, p := range r.reg.Pairs {
		var g float64
		if p.Surface {
			g, _ = r.reg.SurfaceGap(r.x, p.A, p.B, nil)
		} else {
			g = r.reg.BodyGap(r.x, p.A, p.B)
		}
		d.MaxPenetration = math.Max(d.MaxPenetration, -g)
	}
}

func (r *run) finish() {
	for _, m := range r.mets {
		r.tr.Metrics[m.Name()] = m.Value()
	}
	r.tr.Metrics["steps"] = float64(r.steps)
	r.log.Info("run finished",
		zap.String("status", string(r.tr.Status)),
		zap.Float64("t", r.t),
		zap.Int("steps", r.steps),
		zap.Int("frames", len(r.tr.Frames)),
		zap.Int("events", len(r.tr.Events)))
}
