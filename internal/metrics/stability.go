package metrics

import (
	"math"

	"github.com/san-kum/phystrace/internal/trace"
)

// Stability is the fraction of frames whose state stays finite and inside
// threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f *trace.Frame) {
	s.samples++
	for _, vs := range [][]float64{f.Q, f.V} {
		for _, val := range vs {
			if math.IsNaN(val) || math.Abs(val) > s.threshold {
				s.violations++
				return
			}
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
