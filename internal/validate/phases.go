package validate

import (
	"fmt"

	"github.com/san-kum/phystrace/internal/contract"
)

func checkPhases(c *contract.Contract, col *collector) {
	if len(c.Phases) == 0 {
		return
	}

	initial := -1
	count := 0
	for i, p := range c.Phases {
		if p.Initial {
			count++
			if initial < 0 {
				initial = i
			}
		}
	}
	if count != 1 {
		col.errorf(CodePhaseInitial, "phases", "mark exactly one phase initial: true", "%d initial phases", count)
	}

	index := make(map[string]int, len(c.Phases))
	for i, p := range c.Phases {
		index[p.ID] = i
	}

	edges := make([][]int, len(c.Phases))
	alwaysNext := make([]int, len(c.Phases))
	for i, p := range c.Phases {
		alwaysNext[i] = -1
		for j, tr := range p.Transitions {
			path := fmt.Sprintf("phases[%d].transitions[%d]", i, j)
			to, ok := index[tr.To]
			if !ok {
				col.errorf(CodePhaseUndefined, path+".to", "target an existing phase id", "undefined phase %q", tr.To)
				continue
			}
			switch {
			case tr.Guard == nil && tr.OnEvent == "":
				col.errorf(CodePhaseTrigger, path, "give the transition a guard or on_event", "transition has no trigger")
			case tr.Guard != nil && tr.OnEvent != "":
				col.errorf(CodePhaseTrigger, path, "use either guard or on_event", "transition has two triggers")
			case tr.Guard != nil:
				checkGuard(c, tr.Guard, path+".guard", col)
			default:
				if _, ok := c.ExpectedEvent(tr.OnEvent); !ok {
					col.errorf(CodeRefUnknown, path+".on_event", "name a declared expected event", "unknown event %q", tr.OnEvent)
				}
			}
			edges[i] = append(edges[i], to)
			// Only the first always transition can ever fire on entry.
			if tr.Guard != nil && tr.Guard.Kind == contract.GuardAlways && alwaysNext[i] < 0 {
				alwaysNext[i] = to
			}
		}
		for _, list := range [][]string{p.Activate, p.Deactivate} {
			for _, id := range list {
				if !c.Activatable(id) {
					col.errorf(CodeRefUnknown, fmt.Sprintf("phases[%d]", i), "activate/deactivate name forces, springs or surfaces",
						"unknown force, spring or surface %q", id)
				}
			}
		}
	}

	checkAlwaysCycles(c, alwaysNext, col)

	if initial < 0 {
		return
	}
	reached := make([]bool, len(c.Phases))
	queue := []int{initial}
	reached[initial] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, to := range edges[cur] {
			if !reached[to] {
				reached[to] = true
				queue = append(queue, to)
			}
		}
	}
	var unreachable []int
	for i, ok := range reached {
		if !ok {
			unreachable = append(unreachable, i)
		}
	}
	switch {
	case len(unreachable) == 1:
		i := unreachable[0]
		col.warnf(CodePhaseUnreachableW, fmt.Sprintf("phases[%d]", i), "", "phase %q is unreachable", c.Phases[i].ID)
	case len(unreachable) > 1:
		for _, i := range unreachable {
			col.errorf(CodePhaseUnreachable, fmt.Sprintf("phases[%d]", i), "add transitions into the phase or remove it",
				"phase %q is unreachable", c.Phases[i].ID)
		}
	}
}

// checkAlwaysCycles reports loops made only of always transitions: once
// entered, the machine would switch phases forever at the same instant.
func checkAlwaysCycles(c *contract.Contract, next []int, col *collector) {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(next))
	for start := range next {
		if state[start] != unvisited {
			continue
		}
		var path []int
		cur := start
		for cur >= 0 && state[cur] == unvisited {
			state[cur] = active
			path = append(path, cur)
			cur = next[cur]
		}
		if cur >= 0 && state[cur] == active {
			col.errorf(CodePhaseCycle, fmt.Sprintf("phases[%d]", cur), "break the loop with a guarded transition",
				"phase %q is on a cycle of always transitions", c.Phases[cur].ID)
		}
		for _, p := range path {
			state[p] = done
		}
	}
}
