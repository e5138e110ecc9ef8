// Package acceptance implements the Post-Sim Gate: it runs a contract's
// acceptance tests over a finished trace and scores the run on validity,
// consistency and stability.
package acceptance

import (
	"fmt"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/trace"
)

type gate struct {
	c   *contract.Contract
	tr  *trace.Trace
	rep *Report
}

// Evaluate scores tr against c. Neither input is modified; failed tests are
// reported in the returned Report.
func Evaluate(c *contract.Contract, tr *trace.Trace) *Report {
	rep := &Report{Details: NewDetails()}
	if c == nil || tr == nil {
		rep.Errors = append(rep.Errors, Failure{Message: "missing contract or trace"})
		return rep
	}
	if !c.Sealed() {
		c = c.Clone()
		c.FillDefaults()
	}
	g := &gate{c: c, tr: tr, rep: rep}

	if !tr.Complete() {
		rep.Errors = append(rep.Errors, Failure{Message: fmt.Sprintf("run ended with status %s: %s", tr.Status, tr.Failure)})
	}
	for _, w := range tr.Diagnostics.Warnings {
		rep.warnf("t=%.6g %s: %s", w.Time, w.Code, w.Message)
	}

	for _, a := range c.AcceptanceTests {
		res := g.run(a)
		res.ID, res.Kind = a.ID, a.Kind
		res.Weight = a.Weight
		if res.Weight <= 0 {
			res.Weight = 1
		}
		rep.Results = append(rep.Results, res)
		if !res.Passed {
			rep.Errors = append(rep.Errors, Failure{Test: a.ID, Kind: a.Kind, Message: res.Message})
		}
	}

	rep.Score.Validity = g.validity()
	rep.Score.Consistency = g.consistency()
	rep.Score.Stability = g.stability()
	rep.Score.Overall = overall(rep.Score, c.Scoring)
	rep.OK = len(rep.Errors) == 0
	return rep
}

func (g *gate) run(a contract.AcceptanceTest) Result {
	switch a.Kind {
	case contract.TestEventTime:
		return g.eventTime(a)
	case contract.TestConservation:
		return g.conservation(a)
	case contract.TestShape:
		if a.Signal == nil {
			return Result{Message: "shape test without a signal"}
		}
		return g.shape(a)
	case contract.TestRatio:
		return g.ratio(a)
	}
	return Result{Message: fmt.Sprintf("unknown test kind %q", a.Kind)}
}

func overall(s Score, w contract.Scoring) float64 {
	total := w.Validity + w.Consistency + w.Stability
	if total <= 0 {
		w = contract.DefaultScoring()
		total = w.Validity + w.Consistency + w.Stability
	}
	return (w.Validity*s.Validity + w.Consistency*s.Consistency + w.Stability*s.Stability) / total
}
