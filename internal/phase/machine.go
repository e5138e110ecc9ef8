// Package phase runs the phase state machine of a Contract. Entering a phase
// switches its activate/deactivate lists on the world's activation set.
package phase

import (
	"errors"
	"fmt"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/world"
)

// MaxChain caps consecutive always-transitions taken in one instant.
const MaxChain = 64

var ErrAlwaysChain = errors.New("phase: always-transition chain too long")

// Entry is one phase entered during a run.
type Entry struct {
	Phase string  `json:"phase"`
	Time  float64 `json:"time"`
	Cause string  `json:"cause"`
}

// Candidate is a guarded transition of the current phase.
type Candidate struct {
	Index int
	To    string
	Guard *contract.GuardSpec
}

type Machine struct {
	phases  []contract.Phase
	index   map[string]int
	cur     int
	act     *world.Activation
	history []Entry
}

// New builds a machine over phases. A Contract without phases yields a
// machine that stays in the unnamed phase and never transitions.
func New(phases []contract.Phase, act *world.Activation) *Machine {
	m := &Machine{
		phases: phases,
		index:  make(map[string]int, len(phases)),
		cur:    -1,
		act:    act,
	}
	for i, p := range phases {
		m.index[p.ID] = i
	}
	return m
}

// Start enters the initial phase at time t and follows its always-chain.
func (m *Machine) Start(t float64) ([]Entry, error) {
	for i, p := range m.phases {
		if p.Initial {
			return m.enter(i, t, "initial")
		}
	}
	return nil, nil
}

func (m *Machine) Current() string {
	if m.cur < 0 {
		return ""
	}
	return m.phases[m.cur].ID
}

func (m *Machine) CurrentIndex() int { return m.cur }

// Candidates lists the guarded transitions of the current phase in
// declaration order.
func (m *Machine) Candidates() []Candidate {
	if m.cur < 0 {
		return nil
	}
	var out []Candidate
	for i, tr := range m.phases[m.cur].Transitions {
		if tr.Guard != nil && tr.Guard.Kind != contract.GuardAlways {
			out = append(out, Candidate{Index: i, To: tr.To, Guard: tr.Guard})
		}
	}
	return out
}

// Fire takes transition i of the current phase at time t.
func (m *Machine) Fire(i int, t float64) ([]Entry, error) {
	if m.cur < 0 || i < 0 || i >= len(m.phases[m.cur].Transitions) {
		return nil, fmt.Errorf("phase: no transition %d from %q", i, m.Current())
	}
	tr := m.phases[m.cur].Transitions[i]
	return m.enter(m.index[tr.To], t, "guard")
}

// OnEvent takes the first transition of the current phase triggered by the
// named event. It reports false when no transition listens for it.
func (m *Machine) OnEvent(name string, t float64) ([]Entry, bool, error) {
	if m.cur < 0 || name == "" {
		return nil, false, nil
	}
	for _, tr := range m.phases[m.cur].Transitions {
		if tr.OnEvent == name {
			entries, err := m.enter(m.index[tr.To], t, "event:"+name)
			return entries, true, err
		}
	}
	return nil, false, nil
}

// Terminal reports whether the current phase has no way out.
func (m *Machine) Terminal() bool {
	return m.cur < 0 || len(m.phases[m.cur].Transitions) == 0
}

func (m *Machine) History() []Entry { return m.history }

func (m *Machine) enter(i int, t float64, cause string) ([]Entry, error) {
	var entered []Entry
	for n := 0; ; n++ {
		if n > MaxChain {
			return entered, fmt.Errorf("%w: %d transitions at t=%g", ErrAlwaysChain, n, t)
		}
		m.cur = i
		p := &m.phases[i]
		if m.act != nil {
			for _, id := range p.Activate {
				m.act.Set(id, true)
			}
			for _, id := range p.Deactivate {
				m.act.Set(id, false)
			}
		}
		e := Entry{Phase: p.ID, Time: t, Cause: cause}
		m.history = append(m.history, e)
		entered = append(entered, e)

		next := -1
		for _, tr := range p.Transitions {
			if tr.Guard != nil && tr.Guard.Kind == contract.GuardAlways {
				next = m.index[tr.To]
				break
			}
		}
		if next < 0 {
			return entered, nil
		}
		i, cause = next, "always"
	}
}
