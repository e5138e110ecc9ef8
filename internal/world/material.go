package world

import (
	"math"

	"github.com/san-kum/phystrace/internal/contract"
)

// Mixed holds the combined coefficients of a contact pair.
type Mixed struct {
	Restitution float64
	Static      float64
	Kinetic     float64
}

// Mix combines two materials. A side without a material block defers to the
// other; restitution takes the minimum and friction the geometric mean.
func Mix(a, b *contract.Material) Mixed {
	switch {
	case a == nil && b == nil:
		return Mixed{}
	case a == nil:
		return Mixed{b.Restitution, b.StaticFriction, b.KineticFriction}
	case b == nil:
		return Mixed{a.Restitution, a.StaticFriction, a.KineticFriction}
	}
	return Mixed{
		Restitution: math.Min(a.Restitution, b.Restitution),
		Static:      math.Sqrt(a.StaticFriction * b.StaticFriction),
		Kinetic:     math.Sqrt(a.KineticFriction * b.KineticFriction),
	}
}

// PairMaterial mixes the materials of p, dropping friction when a phase has
// switched the surface's friction off.
func (r *Registry) PairMaterial(p Pair) Mixed {
	if p.Surface {
		m := Mix(r.Bodies[p.A].Material, r.Surfaces[p.B].Material)
		if !r.Active.Friction(p.B) {
			m.Static, m.Kinetic = 0, 0
		}
		return m
	}
	return Mix(r.Bodies[p.A].Material, r.Bodies[p.B].Material)
}
