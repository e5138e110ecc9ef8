package contract

// Per-body signal quantities.
const (
	QuantityX     = "x"
	QuantityY     = "y"
	QuantityAngle = "angle"
	QuantityVX    = "vx"
	QuantityVY    = "vy"
	QuantityOmega = "omega"
	QuantitySpeed = "speed"
)

// System-wide signal quantities.
const (
	QuantityEnergy          = "energy"
	QuantityKinetic         = "kinetic"
	QuantityPotential       = "potential"
	QuantityMomentumX       = "momentum_x"
	QuantityMomentumY       = "momentum_y"
	QuantityMomentum        = "momentum"
	QuantityAngularMomentum = "angular_momentum"
)

var bodyQuantities = map[string]bool{
	QuantityX: true, QuantityY: true, QuantityAngle: true,
	QuantityVX: true, QuantityVY: true, QuantityOmega: true, QuantitySpeed: true,
}

var systemQuantities = map[string]bool{
	QuantityEnergy: true, QuantityKinetic: true, QuantityPotential: true,
	QuantityMomentumX: true, QuantityMomentumY: true, QuantityMomentum: true,
	QuantityAngularMomentum: true,
}

func IsBodyQuantity(q string) bool   { return bodyQuantities[q] }
func IsSystemQuantity(q string) bool { return systemQuantities[q] }

// Shape patterns understood by shape acceptance tests.
const (
	PatternIncreasing = "increasing"
	PatternDecreasing = "decreasing"
	PatternSinglePeak = "single_peak"
	PatternParabolic  = "parabolic"
	PatternLinear     = "linear"
)

func IsPattern(p string) bool {
	switch p {
	case PatternIncreasing, PatternDecreasing, PatternSinglePeak, PatternParabolic, PatternLinear:
		return true
	}
	return false
}

// ExprFuncs lists the functions ratio expressions may call, by arity.
var ExprFuncs = map[string]int{
	"abs":  1,
	"sqrt": 1,
	"pow":  2,
	"min":  2,
	"max":  2,
}
