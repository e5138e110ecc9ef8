package metrics

import (
	"math"

	"github.com/san-kum/phystrace/internal/trace"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// Slope is the least-squares slope of ys over xs.
func Slope(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 0
	}
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n
	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0
	}
	return sxy / sxx
}

// Classify labels a residual series by its slope over the run. A change of
// less than tol over the whole span counts as stable.
func Classify(xs, ys []float64, tol float64) (Trend, float64) {
	s := Slope(xs, ys)
	if len(xs) < 2 {
		return TrendStable, s
	}
	span := (xs[len(xs)-1] - xs[0]) * s
	switch {
	case span > tol:
		return TrendDegrading, s
	case span < -tol:
		return TrendImproving, s
	}
	return TrendStable, s
}

// LedgerResiduals returns, per frame, the relative deviation of the energy
// ledger from its initial value.
func LedgerResiduals(tr *trace.Trace) (times, residuals []float64) {
	if len(tr.Frames) == 0 {
		return nil, nil
	}
	ref := tr.Frames[0].Ledger()
	times = make([]float64, len(tr.Frames))
	residuals = make([]float64, len(tr.Frames))
	for k := range tr.Frames {
		times[k] = tr.Frames[k].Time
		residuals[k] = RelChange(tr.Frames[k].Ledger(), ref)
	}
	return times, residuals
}

// MaxAbs is the largest magnitude in vs.
func MaxAbs(vs []float64) float64 {
	m := 0.0
	for _, v := range vs {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
