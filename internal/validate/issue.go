package validate

import (
	"errors"
	"fmt"

	"github.com/san-kum/phystrace/internal/contract"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes. Codes are stable; messages are not.
const (
	CodeSchemaMissing      = "E_SCHEMA_MISSING"
	CodeSchemaCoordinates  = "E_SCHEMA_COORDINATES"
	CodeDuplicateID        = "E_ID_DUPLICATE"
	CodeShapeUnknown       = "E_SHAPE_UNKNOWN"
	CodeShapeIncomplete    = "E_SHAPE_INCOMPLETE"
	CodeSimulation         = "E_SIMULATION"
	CodeUnitUnknown        = "E_UNIT_UNKNOWN"
	CodeNormalZero         = "E_NORMAL_ZERO"
	CodeNormalNotUnit      = "W_NORMAL_NOT_UNIT"
	CodeBoundsDegenerate   = "E_BOUNDS_DEGENERATE"
	CodeBoundsReversed     = "W_BOUNDS_REVERSED"
	CodeBoundsOffPlane     = "W_BOUNDS_OFF_PLANE"
	CodePolySelfIntersect  = "E_POLY_SELF_INTERSECT"
	CodePolyDegenerate     = "E_POLY_DEGENERATE"
	CodePolyConcave        = "E_POLY_CONCAVE"
	CodePolyClockwise      = "W_POLY_CLOCKWISE"
	CodePolyRecentered     = "W_POLY_RECENTERED"
	CodeRestitutionRange   = "E_RESTITUTION_RANGE"
	CodeFrictionOrder      = "E_FRICTION_ORDER"
	CodeMassNonPositive    = "E_MASS_NONPOSITIVE"
	CodeInertiaNonPositive = "E_INERTIA_NONPOSITIVE"
	CodeParamRange         = "E_PARAM_RANGE"
	CodeContactUnknown     = "E_CONTACT_UNKNOWN"
	CodePhaseInitial       = "E_PHASE_INITIAL"
	CodePhaseUndefined     = "E_PHASE_UNDEFINED"
	CodePhaseCycle         = "E_PHASE_CYCLE"
	CodePhaseUnreachable   = "E_PHASE_UNREACHABLE"
	CodePhaseUnreachableW  = "W_PHASE_UNREACHABLE"
	CodePhaseTrigger       = "E_PHASE_TRIGGER"
	CodeGuardInvalid       = "E_GUARD_INVALID"
	CodeRefUnknown         = "E_REF_UNKNOWN"
	CodeEventKind          = "E_EVENT_KIND"
	CodeTestInvalid        = "E_TEST_INVALID"
	CodeExprInvalid        = "E_EXPR_INVALID"
)

// Issue is one validation finding. Path locates it inside the Contract
// (for example "bodies[1].material.restitution").
type Issue struct {
	Code     string   `json:"code"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitempty"`
	Severity Severity `json:"severity"`
}

func (i Issue) Error() string {
	if i.Path == "" {
		return fmt.Sprintf("%s: %s", i.Code, i.Message)
	}
	return fmt.Sprintf("%s at %s: %s", i.Code, i.Path, i.Message)
}

// Result is the Pre-Sim Gate outcome. Normalized is set only when OK.
type Result struct {
	OK         bool               `json:"ok"`
	Errors     []Issue            `json:"errors"`
	Warnings   []Issue            `json:"warnings"`
	Normalized *contract.Contract `json:"-"`
}

// Err joins every error issue, or returns nil when the Contract passed.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, is := range r.Errors {
		errs[i] = is
	}
	return errors.Join(errs...)
}

// Has reports whether any error or warning carries code.
func (r Result) Has(code string) bool {
	for _, is := range r.Errors {
		if is.Code == code {
			return true
		}
	}
	for _, is := range r.Warnings {
		if is.Code == code {
			return true
		}
	}
	return false
}

type collector struct {
	errors   []Issue
	warnings []Issue
}

func (c *collector) errorf(code, path, hint, format string, args ...any) {
	c.errors = append(c.errors, Issue{
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Hint:     hint,
		Severity: SeverityError,
	})
}

func (c *collector) warnf(code, path, hint, format string, args ...any) {
	c.warnings = append(c.warnings, Issue{
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Hint:     hint,
		Severity: SeverityWarning,
	})
}
