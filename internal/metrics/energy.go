package metrics

import (
	"math"

	"github.com/san-kum/phystrace/internal/trace"
)

// EnergyDrift is the largest relative change of mechanical energy from the
// first frame. Impacts and friction count as drift here; see LedgerDrift.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f *trace.Frame) {
	if e.samples == 0 {
		e.initial = f.Energy
	}
	e.samples++
	e.maxDrift = math.Max(e.maxDrift, RelChange(f.Energy, e.initial))
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// LedgerDrift tracks the energy ledger, mechanical energy plus dissipated
// work plus impact losses, which only integration error can move.
type LedgerDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewLedgerDrift() *LedgerDrift {
	return &LedgerDrift{name: "ledger_drift"}
}

func (l *LedgerDrift) Name() string { return l.name }

func (l *LedgerDrift) Observe(f *trace.Frame) {
	if l.samples == 0 {
		l.initial = f.Ledger()
	}
	l.samples++
	l.maxDrift = math.Max(l.maxDrift, RelChange(f.Ledger(), l.initial))
}

func (l *LedgerDrift) Value() float64 { return l.maxDrift }

func (l *LedgerDrift) Reset() {
	l.initial = 0
	l.maxDrift = 0
	l.samples = 0
}

// RelChange is |v-ref| relative to |ref|, or absolute when ref is tiny.
func RelChange(v, ref float64) float64 {
	d := math.Abs(v - ref)
	if s := math.Abs(ref); s > 1e-12 {
		return d / s
	}
	return d
}

// ContactLoad is the mean total normal force of persistent contacts.
type ContactLoad struct {
	name    string
	sum     float64
	samples int
}

func NewContactLoad() *ContactLoad {
	return &ContactLoad{name: "contact_load"}
}

func (c *ContactLoad) Name() string { return c.name }

func (c *ContactLoad) Observe(f *trace.Frame) {
	for _, ct := range f.Contacts {
		c.sum += math.Abs(ct.Normal)
	}
	c.samples++
}

func (c *ContactLoad) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ContactLoad) Reset() {
	c.sum = 0
	c.samples = 0
}
