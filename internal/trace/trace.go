// Package trace holds the time-ordered record a run produces: sampled
// frames, discrete events and integrator diagnostics.
package trace

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/phystrace/internal/contract"
)

type Status string

const (
	StatusOK        Status = "ok"
	StatusStepLimit Status = "step_limit"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

type EventKind string

const (
	EventContact      EventKind = "contact"
	EventSeparation   EventKind = "separation"
	EventStick        EventKind = "stick"
	EventSlip         EventKind = "slip"
	EventVelocityZero EventKind = "velocity_zero"
	EventPhaseEnter   EventKind = "phase_enter"
	EventGuard        EventKind = "guard"
)

// Contact is a persistent contact live at a frame.
type Contact struct {
	Body    string  `json:"body"`
	Surface string  `json:"surface"`
	Regime  string  `json:"regime"`
	Normal  float64 `json:"normal"`
}

// Frame samples the system at one instant. Q and V hold x, y, angle and
// vx, vy, omega per body in registry order.
type Frame struct {
	Time            float64    `json:"time"`
	Q               []float64  `json:"q"`
	V               []float64  `json:"v"`
	Phase           string     `json:"phase,omitempty"`
	Energy          float64    `json:"energy"`
	Kinetic         float64    `json:"kinetic"`
	Potential       float64    `json:"potential"`
	Dissipated      float64    `json:"dissipated"`
	ImpactLoss      float64    `json:"impact_loss"`
	Momentum        [2]float64 `json:"momentum"`
	AngularMomentum float64    `json:"angular_momentum"`
	Contacts        []Contact  `json:"contacts,omitempty"`
}

// Ledger is mechanical energy plus everything dissipated so far. It stays
// constant over a run up to integration error.
func (f *Frame) Ledger() float64 { return f.Energy + f.Dissipated + f.ImpactLoss }

// Event is one discrete occurrence. Impulse holds the normal and tangential
// impulse of contact events; PreV and PostV the normal relative velocity.
type Event struct {
	Seq          int        `json:"seq"`
	Time         float64    `json:"time"`
	Kind         EventKind  `json:"kind"`
	Participants []string   `json:"participants"`
	Pair         int        `json:"pair"`
	Decl         int        `json:"decl"`
	Names        []string   `json:"names,omitempty"`
	Impulse      [2]float64 `json:"impulse"`
	PreV         float64    `json:"pre_v"`
	PostV        float64    `json:"post_v"`
	Restitution  float64    `json:"restitution"`
	Regime       string     `json:"regime,omitempty"`
	EnergyBefore float64    `json:"energy_before"`
	EnergyAfter  float64    `json:"energy_after"`
	Phase        string     `json:"phase,omitempty"`
}

// Loss is the kinetic energy an impact removed.
func (e *Event) Loss() float64 { return e.EnergyBefore - e.EnergyAfter }

func (e *Event) HasName(name string) bool {
	for _, n := range e.Names {
		if n == name {
			return true
		}
	}
	return false
}

type Warning struct {
	Time    float64 `json:"time"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}

type Diagnostics struct {
	StepSizes      []float64 `json:"step_sizes"`
	StepErrors     []float64 `json:"step_errors"`
	Accepted       int       `json:"accepted"`
	Rejected       int       `json:"rejected"`
	Forced         int       `json:"forced"`
	MaxPenetration float64   `json:"max_penetration"`
	Warnings       []Warning `json:"warnings,omitempty"`
}

// RejectionRate is rejected over attempted steps.
func (d *Diagnostics) RejectionRate() float64 {
	n := d.Accepted + d.Rejected
	if n == 0 {
		return 0
	}
	return float64(d.Rejected) / float64(n)
}

type Trace struct {
	Name        string             `json:"name"`
	BodyIDs     []string           `json:"body_ids"`
	Frames      []Frame            `json:"frames"`
	Events      []Event            `json:"events"`
	Diagnostics Diagnostics        `json:"diagnostics"`
	Status      Status             `json:"status"`
	Failure     string             `json:"failure,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

func (tr *Trace) Complete() bool { return tr.Status == StatusOK }

func (tr *Trace) Duration() float64 {
	if len(tr.Frames) == 0 {
		return 0
	}
	return tr.Frames[len(tr.Frames)-1].Time
}

func (tr *Trace) bodyIndex(id string) int {
	for i, b := range tr.BodyIDs {
		if b == id {
			return i
		}
	}
	return -1
}

// Named returns the first event tagged with an expected-event name.
func (tr *Trace) Named(name string) (*Event, bool) {
	for i := range tr.Events {
		if tr.Events[i].HasName(name) {
			return &tr.Events[i], true
		}
	}
	return nil, false
}

func (tr *Trace) EventsOf(kind EventKind) []Event {
	var out []Event
	for _, e := range tr.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Value reads a body or system quantity from frame f. body is ignored for
// system quantities.
func (tr *Trace) Value(f *Frame, body, quantity string) (float64, error) {
	if contract.IsSystemQuantity(quantity) {
		switch quantity {
		case contract.QuantityEnergy:
			return f.Energy, nil
		case contract.QuantityKinetic:
			return f.Kinetic, nil
		case contract.QuantityPotential:
			return f.Potential, nil
		case contract.QuantityMomentumX:
			return f.Momentum[0], nil
		case contract.QuantityMomentumY:
			return f.Momentum[1], nil
		case contract.QuantityMomentum:
			return math.Hypot(f.Momentum[0], f.Momentum[1]), nil
		case contract.QuantityAngularMomentum:
			return f.AngularMomentum, nil
		}
	}
	i := tr.bodyIndex(body)
	if i < 0 {
		return 0, fmt.Errorf("trace: unknown body %q", body)
	}
	q, v := f.Q[3*i:3*i+3], f.V[3*i:3*i+3]
	switch quantity {
	case contract.QuantityX:
		return q[0], nil
	case contract.QuantityY:
		return q[1], nil
	case contract.QuantityAngle:
		return q[2], nil
	case contract.QuantityVX:
		return v[0], nil
	case contract.QuantityVY:
		return v[1], nil
	case contract.QuantityOmega:
		return v[2], nil
	case contract.QuantitySpeed:
		return math.Hypot(v[0], v[1]), nil
	}
	return 0, fmt.Errorf("trace: unknown quantity %q", quantity)
}

// Signal samples a quantity over every frame.
func (tr *Trace) Signal(body, quantity string) (times, values []float64, err error) {
	times = make([]float64, len(tr.Frames))
	values = make([]float64, len(tr.Frames))
	for k := range tr.Frames {
		times[k] = tr.Frames[k].Time
		if values[k], err = tr.Value(&tr.Frames[k], body, quantity); err != nil {
			return nil, nil, err
		}
	}
	return times, values, nil
}

// Index is the last frame at or before t, or -1 when t precedes the trace.
func (tr *Trace) Index(t float64) int {
	return sort.Search(len(tr.Frames), func(k int) bool { return tr.Frames[k].Time > t }) - 1
}

// At interpolates the trace linearly at time t. Discrete fields come from
// the frame at or before t; times outside the trace clamp to its ends.
func (tr *Trace) At(t float64) (Frame, bool) {
	if len(tr.Frames) == 0 {
		return Frame{}, false
	}
	k := tr.Index(t)
	if k < 0 {
		return tr.Frames[0], true
	}
	if k == len(tr.Frames)-1 || tr.Frames[k].Time == t {
		return tr.Frames[k], true
	}
	a, b := &tr.Frames[k], &tr.Frames[k+1]
	s := (t - a.Time) / (b.Time - a.Time)
	lerp := func(u, v float64) float64 { return u + s*(v-u) }
	out := *a
	out.Time = t
	out.Q = make([]float64, len(a.Q))
	out.V = make([]float64, len(a.V))
	for i := range a.Q {
		out.Q[i] = lerp(a.Q[i], b.Q[i])
		out.V[i] = lerp(a.V[i], b.V[i])
	}
	out.Energy = lerp(a.Energy, b.Energy)
	out.Kinetic = lerp(a.Kinetic, b.Kinetic)
	out.Potential = lerp(a.Potential, b.Potential)
	out.Dissipated = lerp(a.Dissipated, b.Dissipated)
	out.Momentum = [2]float64{lerp(a.Momentum[0], b.Momentum[0]), lerp(a.Momentum[1], b.Momentum[1])}
	out.AngularMomentum = lerp(a.AngularMomentum, b.AngularMomentum)
	return out, true
}
