package contract

import "github.com/go-gl/mathgl/mgl64"

// Vec2 is a 2D vector in the Contract's declared units.
type Vec2 [2]float64

func (v Vec2) V() mgl64.Vec2 { return mgl64.Vec2{v[0], v[1]} }

func FromV(v mgl64.Vec2) Vec2 { return Vec2{v[0], v[1]} }

// Contract is the declarative scenario. After the Pre-Sim Gate accepts it,
// the normalized copy is treated as immutable.
type Contract struct {
	Name            string           `yaml:"name" json:"name"`
	Units           Units            `yaml:"units" json:"units"`
	World           World            `yaml:"world" json:"world"`
	Simulation      Simulation       `yaml:"simulation" json:"simulation"`
	Bodies          []Body           `yaml:"bodies" json:"bodies"`
	Surfaces        []Surface        `yaml:"surfaces" json:"surfaces"`
	Constraints     Constraints      `yaml:"constraints" json:"constraints"`
	Forces          []Force          `yaml:"forces" json:"forces"`
	Phases          []Phase          `yaml:"phases" json:"phases"`
	ExpectedEvents  []ExpectedEvent  `yaml:"expected_events" json:"expected_events"`
	AcceptanceTests []AcceptanceTest `yaml:"acceptance_tests" json:"acceptance_tests"`
	Tolerances      Tolerances       `yaml:"tolerances" json:"tolerances"`
	Scoring         Scoring          `yaml:"scoring" json:"scoring"`

	sealed bool
}

// Seal marks c as the accepted output of validation. Clones are unsealed.
func (c *Contract) Seal() { c.sealed = true }

func (c *Contract) Sealed() bool { return c != nil && c.sealed }

type Units struct {
	Length string `yaml:"length" json:"length"`
	Mass   string `yaml:"mass" json:"mass"`
	Time   string `yaml:"time" json:"time"`
	Angle  string `yaml:"angle" json:"angle"`
}

type World struct {
	Coordinates string    `yaml:"coordinates" json:"coordinates"`
	Gravity     Vec2      `yaml:"gravity" json:"gravity"`
	Constants   Constants `yaml:"constants" json:"constants"`
}

const (
	CoordinatesYUp   = "y_up"
	CoordinatesYDown = "y_down"
)

type Simulation struct {
	TEnd       float64 `yaml:"t_end" json:"t_end"`
	Integrator string  `yaml:"integrator" json:"integrator"`
	Dt         float64 `yaml:"dt" json:"dt"`
	HMin       float64 `yaml:"h_min" json:"h_min"`
	HMax       float64 `yaml:"h_max" json:"h_max"`
	MaxSteps   int     `yaml:"max_steps" json:"max_steps"`
}

const (
	IntegratorRK45   = "rk45"
	IntegratorRK4    = "rk4"
	IntegratorVerlet = "verlet"
	IntegratorEuler  = "euler"
)

type ShapeKind string

const (
	ShapeCircle  ShapeKind = "circle"
	ShapeBox     ShapeKind = "box"
	ShapePolygon ShapeKind = "polygon"
)

type Shape struct {
	Kind     ShapeKind `yaml:"kind" json:"kind"`
	Radius   float64   `yaml:"radius,omitempty" json:"radius,omitempty"`
	Width    float64   `yaml:"width,omitempty" json:"width,omitempty"`
	Height   float64   `yaml:"height,omitempty" json:"height,omitempty"`
	Vertices []Vec2    `yaml:"vertices,omitempty" json:"vertices,omitempty"`
}

type Material struct {
	Restitution     float64 `yaml:"restitution" json:"restitution"`
	StaticFriction  float64 `yaml:"static_friction" json:"static_friction"`
	KineticFriction float64 `yaml:"kinetic_friction" json:"kinetic_friction"`
}

type InitialState struct {
	Position        Vec2    `yaml:"position" json:"position"`
	Angle           float64 `yaml:"angle" json:"angle"`
	Velocity        Vec2    `yaml:"velocity" json:"velocity"`
	AngularVelocity float64 `yaml:"angular_velocity" json:"angular_velocity"`
}

type Body struct {
	ID            string       `yaml:"id" json:"id"`
	Shape         Shape        `yaml:"shape" json:"shape"`
	Mass          float64      `yaml:"mass" json:"mass"`
	Inertia       float64      `yaml:"inertia" json:"inertia"`
	FixedRotation bool         `yaml:"fixed_rotation" json:"fixed_rotation"`
	Initial       InitialState `yaml:"initial" json:"initial"`
	Material      *Material    `yaml:"material" json:"material"`
	Contacts      []string     `yaml:"contacts" json:"contacts"`
}

// Bounds limits a surface plane to the segment Start-End.
type Bounds struct {
	Start Vec2 `yaml:"start" json:"start"`
	End   Vec2 `yaml:"end" json:"end"`
}

type Surface struct {
	ID       string    `yaml:"id" json:"id"`
	Point    Vec2      `yaml:"point" json:"point"`
	Normal   Vec2      `yaml:"normal" json:"normal"`
	Angle    *float64  `yaml:"angle,omitempty" json:"angle,omitempty"`
	Bounds   *Bounds   `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	Material *Material `yaml:"material" json:"material"`
}

type Spring struct {
	ID         string  `yaml:"id" json:"id"`
	A          string  `yaml:"a" json:"a"`
	B          string  `yaml:"b" json:"b"`
	AnchorA    Vec2    `yaml:"anchor_a" json:"anchor_a"`
	AnchorB    Vec2    `yaml:"anchor_b" json:"anchor_b"`
	Stiffness  float64 `yaml:"stiffness" json:"stiffness"`
	Damping    float64 `yaml:"damping" json:"damping"`
	RestLength float64 `yaml:"rest_length" json:"rest_length"`
	Disabled   bool    `yaml:"disabled" json:"disabled"`
}

type Constraints struct {
	Springs []Spring `yaml:"springs" json:"springs"`
}

type ForceKind string

const (
	ForceConstant      ForceKind = "constant"
	ForceLinearDrag    ForceKind = "linear_drag"
	ForceQuadraticDrag ForceKind = "quadratic_drag"
)

type Force struct {
	ID          string    `yaml:"id" json:"id"`
	Kind        ForceKind `yaml:"kind" json:"kind"`
	Body        string    `yaml:"body" json:"body"`
	Vector      Vec2      `yaml:"vector" json:"vector"`
	Coefficient float64   `yaml:"coefficient" json:"coefficient"`
	Disabled    bool      `yaml:"disabled" json:"disabled"`
}

type GuardKind string

const (
	GuardContact            GuardKind = "contact"
	GuardSeparation         GuardKind = "separation"
	GuardVelocityZero       GuardKind = "velocity_zero"
	GuardTangentialVelocity GuardKind = "tangential_velocity"
	GuardPosition           GuardKind = "position"
	GuardDistance           GuardKind = "distance"
	GuardTime               GuardKind = "time"
	GuardAlways             GuardKind = "always"
)

// GuardSpec declares a scalar function whose zero crossing is an event.
type GuardSpec struct {
	Kind      GuardKind `yaml:"kind" json:"kind"`
	Body      string    `yaml:"body" json:"body"`
	Other     string    `yaml:"other,omitempty" json:"other,omitempty"`
	Axis      string    `yaml:"axis,omitempty" json:"axis,omitempty"`
	Value     float64   `yaml:"value,omitempty" json:"value,omitempty"`
	Point     *Vec2     `yaml:"point,omitempty" json:"point,omitempty"`
	Direction string    `yaml:"direction,omitempty" json:"direction,omitempty"`
}

const (
	DirectionFalling = "falling"
	DirectionRising  = "rising"
	DirectionEither  = "either"
)

type Transition struct {
	To      string     `yaml:"to" json:"to"`
	Guard   *GuardSpec `yaml:"guard,omitempty" json:"guard,omitempty"`
	OnEvent string     `yaml:"on_event,omitempty" json:"on_event,omitempty"`
}

type Phase struct {
	ID          string       `yaml:"id" json:"id"`
	Initial     bool         `yaml:"initial" json:"initial"`
	Activate    []string     `yaml:"activate" json:"activate"`
	Deactivate  []string     `yaml:"deactivate" json:"deactivate"`
	Transitions []Transition `yaml:"transitions" json:"transitions"`
}

type EventKind string

const (
	EventContact      EventKind = "contact"
	EventSeparation   EventKind = "separation"
	EventVelocityZero EventKind = "velocity_zero"
	EventStick        EventKind = "stick"
	EventPhaseEnter   EventKind = "phase_enter"
	EventGuard        EventKind = "guard"
)

type ExpectedEvent struct {
	Name         string     `yaml:"name" json:"name"`
	Type         EventKind  `yaml:"type" json:"type"`
	Participants []string   `yaml:"participants" json:"participants"`
	Order        int        `yaml:"order" json:"order"`
	Occurrence   int        `yaml:"occurrence" json:"occurrence"`
	Window       []float64  `yaml:"window" json:"window"`
	Axis         string     `yaml:"axis,omitempty" json:"axis,omitempty"`
	Guard        *GuardSpec `yaml:"guard,omitempty" json:"guard,omitempty"`
}

type TestKind string

const (
	TestEventTime    TestKind = "event_time"
	TestConservation TestKind = "conservation"
	TestShape        TestKind = "shape"
	TestRatio        TestKind = "ratio"
)

// SignalRef names a sampled quantity. Body is empty for system quantities.
type SignalRef struct {
	Body     string `yaml:"body" json:"body"`
	Quantity string `yaml:"quantity" json:"quantity"`
}

// Measure reduces a signal to one number for ratio expressions.
type Measure struct {
	Body     string   `yaml:"body" json:"body"`
	Quantity string   `yaml:"quantity" json:"quantity"`
	Event    string   `yaml:"event,omitempty" json:"event,omitempty"`
	Side     string   `yaml:"side,omitempty" json:"side,omitempty"`
	Time     *float64 `yaml:"time,omitempty" json:"time,omitempty"`
	Reduce   string   `yaml:"reduce,omitempty" json:"reduce,omitempty"`
}

type AcceptanceTest struct {
	ID         string             `yaml:"id" json:"id"`
	Kind       TestKind           `yaml:"kind" json:"kind"`
	Weight     float64            `yaml:"weight" json:"weight"`
	Event      string             `yaml:"event,omitempty" json:"event,omitempty"`
	Min        float64            `yaml:"min,omitempty" json:"min,omitempty"`
	Max        float64            `yaml:"max,omitempty" json:"max,omitempty"`
	Quantity   string             `yaml:"quantity,omitempty" json:"quantity,omitempty"`
	Tolerance  float64            `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	Window     []float64          `yaml:"window,omitempty" json:"window,omitempty"`
	Signal     *SignalRef         `yaml:"signal,omitempty" json:"signal,omitempty"`
	Pattern    string             `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	R2Min      float64            `yaml:"r2_min,omitempty" json:"r2_min,omitempty"`
	Expression string             `yaml:"expression,omitempty" json:"expression,omitempty"`
	Expected   float64            `yaml:"expected,omitempty" json:"expected,omitempty"`
	Quantities map[string]Measure `yaml:"quantities,omitempty" json:"quantities,omitempty"`
}

type Tolerances struct {
	EventTime        float64 `yaml:"event_time" json:"event_time"`
	EnergyDriftRel   float64 `yaml:"energy_drift_rel" json:"energy_drift_rel"`
	MomentumDriftRel float64 `yaml:"momentum_drift_rel" json:"momentum_drift_rel"`
	Slop             float64 `yaml:"slop" json:"slop"`
	VelocityEpsilon  float64 `yaml:"velocity_epsilon" json:"velocity_epsilon"`
	RestingVelocity  float64 `yaml:"resting_velocity" json:"resting_velocity"`
	IntegratorTol    float64 `yaml:"integrator_tol" json:"integrator_tol"`
	RootTimeTol      float64 `yaml:"root_time_tol" json:"root_time_tol"`
	R2Min            float64 `yaml:"r2_min" json:"r2_min"`
	RatioRel         float64 `yaml:"ratio_rel" json:"ratio_rel"`
}

type Scoring struct {
	Validity    float64 `yaml:"validity" json:"validity"`
	Consistency float64 `yaml:"consistency" json:"consistency"`
	Stability   float64 `yaml:"stability" json:"stability"`
}
