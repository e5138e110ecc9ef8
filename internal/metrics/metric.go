// Package metrics computes scalar summaries of a trace, frame by frame while
// a run is in progress and over whole traces for scoring.
package metrics

import "github.com/san-kum/phystrace/internal/trace"

type Metric interface {
	Name() string
	Observe(f *trace.Frame)
	Value() float64
	Reset()
}

// Factory builds a fresh metric for one run.
type Factory func() Metric

// Defaults are the metrics every run records.
func Defaults() []Factory {
	return []Factory{
		func() Metric { return NewEnergyDrift() },
		func() Metric { return NewLedgerDrift() },
		func() Metric { return NewContactLoad() },
		func() Metric { return NewStability(1e6) },
	}
}
