package contract

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnknownUnit = errors.New("contract: unknown unit")

var (
	lengthUnits = map[string]float64{
		"": 1, "m": 1, "cm": 0.01, "mm": 0.001, "km": 1000, "ft": 0.3048, "in": 0.0254,
	}
	massUnits = map[string]float64{
		"": 1, "kg": 1, "g": 0.001,
	}
	timeUnits = map[string]float64{
		"": 1, "s": 1, "ms": 0.001,
	}
	angleUnits = map[string]float64{
		"": 1, "rad": 1, "deg": math.Pi / 180,
	}
)

// Scale holds the factors that map the declared units to SI.
type Scale struct {
	Length float64
	Mass   float64
	Time   float64
	Angle  float64
}

func lookupUnit(table map[string]float64, dim, name string) (float64, error) {
	f, ok := table[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s %q", ErrUnknownUnit, dim, name)
	}
	return f, nil
}

// ScaleFor resolves u into SI factors. Every unknown unit is reported.
func ScaleFor(u Units) (Scale, []error) {
	var s Scale
	var errs []error
	var err error
	if s.Length, err = lookupUnit(lengthUnits, "length", u.Length); err != nil {
		errs = append(errs, err)
	}
	if s.Mass, err = lookupUnit(massUnits, "mass", u.Mass); err != nil {
		errs = append(errs, err)
	}
	if s.Time, err = lookupUnit(timeUnits, "time", u.Time); err != nil {
		errs = append(errs, err)
	}
	if s.Angle, err = lookupUnit(angleUnits, "angle", u.Angle); err != nil {
		errs = append(errs, err)
	}
	return s, errs
}

func (s Scale) IsIdentity() bool {
	return s.Length == 1 && s.Mass == 1 && s.Time == 1 && s.Angle == 1
}

func (s Scale) Velocity() float64     { return s.Length / s.Time }
func (s Scale) Acceleration() float64 { return s.Length / (s.Time * s.Time) }
func (s Scale) AngularRate() float64  { return s.Angle / s.Time }
func (s Scale) Inertia() float64      { return s.Mass * s.Length * s.Length }
func (s Scale) Stiffness() float64    { return s.Mass / (s.Time * s.Time) }
func (s Scale) Damping() float64      { return s.Mass / s.Time }
func (s Scale) Force() float64        { return s.Mass * s.Acceleration() }

// SI is the unit block every normalized Contract carries.
var SI = Units{Length: "m", Mass: "kg", Time: "s", Angle: "rad"}
