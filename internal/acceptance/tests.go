package acceptance

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/metrics"
	"github.com/san-kum/phystrace/internal/trace"
)

// ImpactLoss is the kinetic energy fraction one impact removed next to the
// 1 - e^2 expected of a normal impact at restitution e.
type ImpactLoss struct {
	Time         float64  `json:"time"`
	Participants []string `json:"participants"`
	Fraction     float64  `json:"fraction"`
	Expected     float64  `json:"expected"`
}

// within scores a deviation against its tolerance: 1 inside, decaying as
// tol/dev outside.
func within(dev, tol float64) float64 {
	if dev <= tol {
		return 1
	}
	if math.IsNaN(dev) || tol <= 0 {
		return 0
	}
	return tol / dev
}

func (g *gate) eventTime(a contract.AcceptanceTest) Result {
	res := Result{Value: math.NaN(), Limit: a.Max}
	ev, ok := g.tr.Named(a.Event)
	if !ok {
		res.Message = fmt.Sprintf("event %q never occurred", a.Event)
		return res
	}
	res.Value = ev.Time
	lo, hi := a.Min, a.Max
	if lo == 0 && hi == 0 {
		if want, ok := g.c.ExpectedEvent(a.Event); ok && len(want.Window) == 2 {
			lo, hi = want.Window[0], want.Window[1]
		} else {
			hi = math.Inf(1)
		}
	}
	res.Limit = hi
	var miss float64
	switch {
	case ev.Time < lo:
		miss = lo - ev.Time
	case ev.Time > hi:
		miss = ev.Time - hi
	}
	res.Passed = miss == 0
	width := math.Max(hi-lo, g.c.Tolerances.EventTime)
	if math.IsInf(width, 1) {
		width = g.c.Tolerances.EventTime
	}
	res.Score = math.Max(0, 1-miss/width)
	res.Message = fmt.Sprintf("%s at t=%.6g, window [%g, %g]", a.Event, ev.Time, lo, hi)
	return res
}

func (g *gate) conservation(a contract.AcceptanceTest) Result {
	quantity := a.Quantity
	if quantity == "" {
		quantity = contract.QuantityEnergy
	}
	frames := window(g.tr, a.Window)
	res := Result{Value: math.NaN()}
	if len(frames) == 0 {
		res.Message = "no frames in window"
		return res
	}

	tol := a.Tolerance
	var drift float64
	if quantity == contract.QuantityEnergy {
		if tol == 0 {
			tol = g.c.Tolerances.EnergyDriftRel
		}
		ref, mech := frames[0].Ledger(), frames[0].Energy
		var raw float64
		for k := range frames {
			drift = math.Max(drift, metrics.RelChange(frames[k].Ledger(), ref))
			raw = math.Max(raw, metrics.RelChange(frames[k].Energy, mech))
		}
		losses := g.impactLosses(frames)
		res.Message = fmt.Sprintf("ledger drift %.3g (mechanical %.3g, %d impacts accounted)", drift, raw, len(losses))
		g.rep.Details.Set(a.ID+".impact_losses", losses)
		for _, l := range losses {
			if math.Abs(l.Fraction-l.Expected) > tol && l.Expected > 0 {
				g.rep.warnf("%s: impact at t=%.6g lost %.4g of kinetic energy, 1-e^2 is %.4g", a.ID, l.Time, l.Fraction, l.Expected)
			}
		}
	} else {
		if tol == 0 {
			tol = g.c.Tolerances.MomentumDriftRel
		}
		_, ys, err := sample(g.tr, frames, "", quantity)
		if err != nil {
			res.Message = err.Error()
			return res
		}
		for _, y := range ys {
			drift = math.Max(drift, metrics.RelChange(y, ys[0]))
		}
		res.Message = fmt.Sprintf("%s drift %.3g", quantity, drift)
	}
	res.Value, res.Limit = drift, tol
	res.Passed = drift <= tol
	res.Score = within(drift, tol)
	return res
}

func (g *gate) impactLosses(frames []trace.Frame) []ImpactLoss {
	lo, hi := frames[0].Time, frames[len(frames)-1].Time
	var out []ImpactLoss
	for _, ev := range g.tr.EventsOf(trace.EventContact) {
		if ev.Time < lo || ev.Time > hi || ev.EnergyBefore <= 0 {
			continue
		}
		out = append(out, ImpactLoss{
			Time:         ev.Time,
			Participants: ev.Participants,
			Fraction:     ev.Loss() / ev.EnergyBefore,
			Expected:     1 - ev.Restitution*ev.Restitution,
		})
	}
	return out
}

func (g *gate) shape(a contract.AcceptanceTest) Result {
	res := Result{Value: math.NaN()}
	floor := a.R2Min
	if floor == 0 {
		floor = g.c.Tolerances.R2Min
	}
	res.Limit = floor
	xs, ys, err := sample(g.tr, window(g.tr, a.Window), a.Signal.Body, a.Signal.Quantity)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	fit, err := fitPattern(a.Pattern, xs, ys)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	res.Value = fit
	res.Passed = fit >= floor
	res.Score = math.Max(0, math.Min(1, fit))
	res.Message = fmt.Sprintf("%s fit R^2 %.4f (min %.4f) over %d samples", a.Pattern, fit, floor, len(ys))
	return res
}

func (g *gate) ratio(a contract.AcceptanceTest) Result {
	res := Result{Value: math.NaN(), Limit: a.Expected}
	names := make([]string, 0, len(a.Quantities))
	for name := range a.Quantities {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make(map[string]float64, len(names))
	for _, name := range names {
		v, err := measure(g.tr, a.Quantities[name], a.Window)
		if err != nil {
			res.Message = fmt.Sprintf("%s: %v", name, err)
			return res
		}
		vars[name] = v
	}
	g.rep.Details.Set(a.ID+".quantities", vars)

	v, err := evalExpr(a.Expression, vars)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	tol := a.Tolerance
	if tol == 0 {
		tol = g.c.Tolerances.RatioRel
	}
	dev := metrics.RelChange(v, a.Expected)
	res.Value = v
	res.Passed = dev <= tol
	res.Score = within(dev, tol)
	res.Message = fmt.Sprintf("%s = %.6g, expected %.6g (rel. deviation %.3g, tol %.3g)", a.Expression, v, a.Expected, dev, tol)
	return res
}
