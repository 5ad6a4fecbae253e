// Package formulatest evaluates generated spreadsheet formulas in tests so the
// closed-form cap-table math can be checked without a spreadsheet application.
//
// Formulas are tokenized with efp and translated into expr-lang syntax. Each
// reference operand ("Summary!$B$3", "Ledger[@[shares]]", "Total_FDS") becomes a
// variable bound from the refs map. Only the functions the finance package emits are
// supported.
package formulatest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/stretchr/testify/require"
	"github.com/xuri/efp"
)

// Evaluator compiles translated formulas once and runs them against reference values.
type Evaluator struct {
	cache sync.Map // translated expression → compiled *vm.Program
}

// New creates an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

var defaultEvaluator = New()

// Translate converts formula into an expr expression and the variable environment
// built from refs. Every reference operand must have a value in refs.
func Translate(formula string, refs map[string]any) (string, map[string]any, error) {
	body := strings.TrimPrefix(strings.TrimSpace(formula), "=")
	if body == "" {
		return "", nil, fmt.Errorf("translate formula: empty formula")
	}

	env := make(map[string]any)
	names := make(map[string]string)
	var b strings.Builder
	parser := efp.ExcelParser()
	for _, tok := range parser.Parse(body) {
		switch tok.TType {
		case efp.TokenTypeWhitespace, efp.TokenTypeNoop:
		case efp.TokenTypeOperand:
			switch tok.TSubType {
			case efp.TokenSubTypeNumber:
				b.WriteString(tok.TValue)
			case efp.TokenSubTypeText:
				b.WriteString(strconv.Quote(tok.TValue))
			case efp.TokenSubTypeLogical:
				b.WriteString(strings.ToLower(tok.TValue))
			case efp.TokenSubTypeRange:
				name, ok := names[tok.TValue]
				if !ok {
					v, bound := refs[tok.TValue]
					if !bound {
						return "", nil, fmt.Errorf("translate formula %q: unbound reference %q", formula, tok.TValue)
					}
					name = "ref" + strconv.Itoa(len(names))
					names[tok.TValue] = name
					env[name] = normalize(v)
				}
				b.WriteString(name)
			default:
				return "", nil, fmt.Errorf("translate formula %q: unsupported operand %q", formula, tok.TValue)
			}
		case efp.TokenTypeFunction:
			if tok.TSubType == efp.TokenSubTypeStart {
				fn := strings.ToUpper(strings.TrimPrefix(tok.TValue, "_xlfn."))
				if _, ok := functions[fn]; !ok {
					return "", nil, fmt.Errorf("translate formula %q: unsupported function %s", formula, fn)
				}
				b.WriteString("xl" + fn + "(")
			} else {
				b.WriteString(")")
			}
		case efp.TokenTypeSubexpression:
			if tok.TSubType == efp.TokenSubTypeStart {
				b.WriteString("(")
			} else {
				b.WriteString(")")
			}
		case efp.TokenTypeArgument:
			b.WriteString(",")
		case efp.TokenTypeOperatorPrefix:
			b.WriteString(tok.TValue)
		case efp.TokenTypeOperatorInfix:
			b.WriteString(" " + infix(tok.TValue) + " ")
		case efp.TokenTypeOperatorPostfix:
			if tok.TValue != "%" {
				return "", nil, fmt.Errorf("translate formula %q: unsupported operator %q", formula, tok.TValue)
			}
			b.WriteString("/100")
		default:
			return "", nil, fmt.Errorf("translate formula %q: unsupported token %q", formula, tok.TValue)
		}
	}
	return b.String(), env, nil
}

func infix(op string) string {
	switch op {
	case "=":
		return "=="
	case "<>":
		return "!="
	case "^":
		return "**"
	case "&":
		return "+"
	default:
		return op
	}
}

// Eval translates and runs formula.
func (e *Evaluator) Eval(formula string, refs map[string]any) (any, error) {
	code, env, err := Translate(formula, refs)
	if err != nil {
		return nil, err
	}
	program, err := e.compile(code)
	if err != nil {
		return nil, fmt.Errorf("compile formula %q: %w", formula, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate formula %q: %w", formula, err)
	}
	return out, nil
}

// Number evaluates formula and converts the result to float64.
func (e *Evaluator) Number(formula string, refs map[string]any) (float64, error) {
	out, err := e.Eval(formula, refs)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(out)
	if !ok {
		return 0, fmt.Errorf("formula %q evaluated to %T, expected a number", formula, out)
	}
	return f, nil
}

func (e *Evaluator) compile(code string) (*vm.Program, error) {
	if cached, ok := e.cache.Load(code); ok {
		return cached.(*vm.Program), nil
	}
	opts := make([]expr.Option, 0, len(functions)+1)
	opts = append(opts, expr.AllowUndefinedVariables())
	for name, fn := range functions {
		opts = append(opts, expr.Function("xl"+name, fn))
	}
	program, err := expr.Compile(code, opts...)
	if err != nil {
		return nil, err
	}
	e.cache.Store(code, program)
	return program, nil
}

// Number evaluates formula with a shared Evaluator and fails the test on error.
func Number(t testing.TB, formula string, refs map[string]any) float64 {
	t.Helper()
	v, err := defaultEvaluator.Number(formula, refs)
	require.NoError(t, err, "formula: %s", formula)
	return v
}

// excelEpoch is day zero of the 1900 date system as used by DAYS.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Serial returns the spreadsheet serial day number of t.
func Serial(t time.Time) float64 {
	return math.Floor(t.Sub(excelEpoch).Hours() / 24)
}

// normalize turns reference values into the types expr arithmetic works on.
func normalize(v any) any {
	switch x := v.(type) {
	case time.Time:
		return Serial(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
