package acceptance

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"

	"github.com/san-kum/phystrace/internal/contract"
)

// evalExpr evaluates a ratio expression. The grammar is the subset of Go
// expressions the validator admits: numbers, names, + - * /, parentheses
// and calls to abs, sqrt, pow, min and max.
func evalExpr(src string, vars map[string]float64) (float64, error) {
	e, err := parser.ParseExpr(src)
	if err != nil {
		return 0, err
	}
	return eval(e, vars)
}

func eval(e ast.Expr, vars map[string]float64) (float64, error) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return eval(e.X, vars)
	case *ast.Ident:
		v, ok := vars[e.Name]
		if !ok {
			return 0, fmt.Errorf("undefined name %q", e.Name)
		}
		return v, nil
	case *ast.BasicLit:
		if e.Kind != token.INT && e.Kind != token.FLOAT {
			return 0, fmt.Errorf("literal %s is not a number", e.Value)
		}
		return strconv.ParseFloat(e.Value, 64)
	case *ast.UnaryExpr:
		x, err := eval(e.X, vars)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		}
		return 0, fmt.Errorf("operator %s", e.Op)
	case *ast.BinaryExpr:
		x, err := eval(e.X, vars)
		if err != nil {
			return 0, err
		}
		y, err := eval(e.Y, vars)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return x / y, nil
		}
		return 0, fmt.Errorf("operator %s", e.Op)
	case *ast.CallExpr:
		fn, ok := e.Fun.(*ast.Ident)
		if !ok {
			return 0, fmt.Errorf("unsupported call")
		}
		args := make([]float64, len(e.Args))
		for i, a := range e.Args {
			v, err := eval(a, vars)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return call(fn.Name, args)
	}
	return 0, fmt.Errorf("unsupported syntax %T", e)
}

func call(name string, args []float64) (float64, error) {
	want, ok := contract.ExprFuncs[name]
	if !ok {
		return 0, fmt.Errorf("unknown function %q", name)
	}
	if len(args) != want {
		return 0, fmt.Errorf("%s takes %d arguments", name, want)
	}
	switch name {
	case "abs":
		return math.Abs(args[0]), nil
	case "sqrt":
		if args[0] < 0 {
			return 0, fmt.Errorf("sqrt of negative %g", args[0])
		}
		return math.Sqrt(args[0]), nil
	case "pow":
		return math.Pow(args[0], args[1]), nil
	case "min":
		return math.Min(args[0], args[1]), nil
	}
	return math.Max(args[0], args[1]), nil
}
