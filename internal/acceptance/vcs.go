package acceptance

import (
	"math"
	"sort"

	"github.com/san-kum/phystrace/internal/metrics"
	"github.com/san-kum/phystrace/internal/trace"
)

const (
	// degradingFactor scales the stability of a run whose ledger residual
	// or step error estimate grows over time.
	degradingFactor = 0.75
	// chatterRatio is the share of steps that may end in a contact event
	// before the event count counts as suspicious.
	chatterRatio = 0.5
)

// validity is the weighted fraction of passed tests. A contract without
// tests is trivially valid.
func (g *gate) validity() float64 {
	var passed, total float64
	for _, r := range g.rep.Results {
		total += r.Weight
		if r.Passed {
			passed += r.Weight
		}
	}
	if total == 0 {
		g.rep.warnf("no acceptance tests declared")
		return 1
	}
	return passed / total
}

func (g *gate) consistency() float64 {
	d := &g.tr.Diagnostics
	rejection := 1 - d.RejectionRate()
	penetration := within(d.MaxPenetration, g.c.Tolerances.Slop)
	events := g.eventSanity()
	forced := 1.0
	if d.Accepted > 0 {
		forced = 1 - float64(d.Forced)/float64(d.Accepted)
	}

	if penetration < 1 {
		g.rep.warnf("max penetration %.3g exceeds slop %.3g", d.MaxPenetration, g.c.Tolerances.Slop)
	}
	g.rep.Details.Set("consistency.rejection", rejection)
	g.rep.Details.Set("consistency.penetration", penetration)
	g.rep.Details.Set("consistency.events", events)
	g.rep.Details.Set("consistency.forced", forced)
	return (rejection + penetration + events + forced) / 4
}

// eventSanity checks the event log against the expected events: each is
// seen inside its window, ordered events occur in order, and contacts do
// not chatter.
func (g *gate) eventSanity() float64 {
	tr := g.tr
	type seen struct {
		order int
		time  float64
		seq   int
	}
	var found float64
	var ordered []seen
	for _, want := range g.c.ExpectedEvents {
		ev, ok := tr.Named(want.Name)
		if !ok {
			g.rep.warnf("expected event %q not observed", want.Name)
			continue
		}
		if len(want.Window) == 2 && (ev.Time < want.Window[0] || ev.Time > want.Window[1]) {
			g.rep.warnf("expected event %q at t=%.6g outside window %v", want.Name, ev.Time, want.Window)
			found += 0.5
		} else {
			found++
		}
		if want.Order > 0 {
			ordered = append(ordered, seen{order: want.Order, time: ev.Time, seq: ev.Seq})
		}
	}

	presence, order := 1.0, 1.0
	if n := len(g.c.ExpectedEvents); n > 0 {
		presence = found / float64(n)
	}
	if len(ordered) > 1 {
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })
		good := 0
		for k := 1; k < len(ordered); k++ {
			if ordered[k].seq > ordered[k-1].seq {
				good++
			}
		}
		order = float64(good) / float64(len(ordered)-1)
		if order < 1 {
			g.rep.warnf("expected events occurred out of declared order")
		}
	}

	count := 1.0
	steps := math.Max(1, float64(tr.Diagnostics.Accepted))
	contacts := float64(len(tr.EventsOf(trace.EventContact)) + len(tr.EventsOf(trace.EventSeparation)))
	if r := contacts / steps; r > chatterRatio {
		g.rep.warnf("%d contact events over %d steps: contacts chatter", int(contacts), int(steps))
		count = chatterRatio / r
	}
	return (presence + order + count) / 3
}

// stability combines the size of the energy-ledger residual with its trend
// over the run.
func (g *gate) stability() float64 {
	times, residuals := metrics.LedgerResiduals(g.tr)
	if len(times) == 0 {
		return 0
	}
	tol := g.c.Tolerances.EnergyDriftRel
	worst := metrics.MaxAbs(residuals)
	if math.IsNaN(worst) || math.IsInf(worst, 0) {
		return 0
	}
	trend, slope := metrics.Classify(times, residuals, tol)

	steps := make([]float64, len(g.tr.Diagnostics.StepErrors))
	for i := range steps {
		steps[i] = float64(i)
	}
	stepTrend, _ := metrics.Classify(steps, g.tr.Diagnostics.StepErrors, g.c.Tolerances.IntegratorTol)

	factor := 1.0
	if trend == metrics.TrendDegrading || stepTrend == metrics.TrendDegrading {
		factor = degradingFactor
	}

	g.rep.Details.Set("stability.residual", worst)
	g.rep.Details.Set("stability.trend", string(trend))
	g.rep.Details.Set("stability.slope", slope)
	g.rep.Details.Set("stability.step_error_trend", string(stepTrend))
	return factor / (1 + worst/tol)
}
