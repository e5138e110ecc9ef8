package guard

import (
	"fmt"
	"math"
	"sort"
)

// Crossed reports whether a guard moved from gOld to gNew across zero in
// direction dir. A guard that starts exactly at zero has not crossed, which
// keeps a just-fired guard from firing again at the same instant.
func Crossed(gOld, gNew float64, dir Direction) bool {
	falling := gOld > 0 && gNew <= 0
	rising := gOld < 0 && gNew >= 0
	switch dir {
	case Falling:
		return falling
	case Rising:
		return rising
	}
	return falling || rising
}

// LocalizationWarning is reported when a crossing seen on the tentative step
// cannot be bracketed again during bisection.
type LocalizationWarning struct {
	Guard  string
	TLo    float64
	THi    float64
	Reason string
}

func (w *LocalizationWarning) Error() string {
	return fmt.Sprintf("guard %s: cannot localize crossing in [%g, %g]: %s", w.Guard, w.TLo, w.THi, w.Reason)
}

// Locate bisects f over [tLo, tHi] for a crossing that starts from gLo and
// returns the end of the final bracket, which lies on the post-crossing
// side. The far end is evaluated again through f; if the sign change does
// not survive that, the crossing is reported as unlocalizable. Bisection
// stops once the bracket is narrower than tol or after maxIter halvings.
func Locate(name string, f func(t float64) float64, tLo, tHi, gLo float64, dir Direction, tol float64, maxIter int) (float64, *LocalizationWarning) {
	if gHi := f(tHi); !Crossed(gLo, gHi, dir) {
		return tHi, &LocalizationWarning{Guard: name, TLo: tLo, THi: tHi, Reason: "no sign change under re-evaluation"}
	}
	for i := 0; i < maxIter && tHi-tLo > tol; i++ {
		mid := tLo + (tHi-tLo)/2
		gMid := f(mid)
		if math.IsNaN(gMid) {
			return tHi, &LocalizationWarning{Guard: name, TLo: tLo, THi: tHi, Reason: "guard is NaN"}
		}
		if Crossed(gLo, gMid, dir) {
			tHi = mid
		} else {
			tLo, gLo = mid, gMid
		}
	}
	return tHi, nil
}

// Priority orders simultaneous crossings.
type Priority int

const (
	PrioritySeparation Priority = iota
	PriorityStick
	PriorityContact
	PriorityOther
)

// PriorityOf classifies a guard for tie-breaking.
func PriorityOf(g *Guard) Priority {
	switch g.Source {
	case SourceRestRelease:
		return PrioritySeparation
	case SourceRestStick:
		return PriorityStick
	case SourceContact:
		return PriorityContact
	}
	return PriorityOther
}

// Crossing is a located guard root.
type Crossing struct {
	Guard    int
	Time     float64
	Priority Priority
	PairKey  int
}

// Simultaneous returns the crossings that fall within tol of the earliest
// one, ordered separations first, then by lower pair key, then by
// declaration order. The remaining crossings are dropped: they are detected
// again once the engine continues from the handled events.
func Simultaneous(cs []Crossing, tol float64) []Crossing {
	if len(cs) == 0 {
		return nil
	}
	first := cs[0].Time
	for _, c := range cs[1:] {
		if c.Time < first {
			first = c.Time
		}
	}
	out := make([]Crossing, 0, len(cs))
	for _, c := range cs {
		if c.Time <= first+tol {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.PairKey != b.PairKey {
			return a.PairKey < b.PairKey
		}
		return a.Guard < b.Guard
	})
	return out
}

// GroupTime is the latest root of a simultaneous group. The engine advances
// there so every member is on its post-crossing side.
func GroupTime(group []Crossing) float64 {
	t := group[0].Time
	for _, c := range group[1:] {
		if c.Time > t {
			t = c.Time
		}
	}
	return t
}
