package formulatest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type function = func(params ...any) (any, error)

// functions are the spreadsheet functions the evaluator understands. Arguments are
// evaluated eagerly, so blank references must behave like zero the way they do in a
// spreadsheet.
var functions = map[string]function{
	"IF":      xlIf,
	"IFERROR": xlIfError,
	"MAX":     xlMax,
	"MIN":     xlMin,
	"SUM":     xlSum,
	"SUMIF":   xlSumIf,
	"POWER":   xlPower,
	"DAYS":    xlDays,
	"ISBLANK": xlIsBlank,
	"OR":      xlOr,
	"AND":     xlAnd,
}

func xlIf(params ...any) (any, error) {
	if len(params) < 2 || len(params) > 3 {
		return nil, fmt.Errorf("IF: want 2 or 3 arguments, got %d", len(params))
	}
	if truthy(params[0]) {
		return params[1], nil
	}
	if len(params) == 3 {
		return params[2], nil
	}
	return false, nil
}

func xlIfError(params ...any) (any, error) {
	if len(params) != 2 {
		return nil, fmt.Errorf("IFERROR: want 2 arguments, got %d", len(params))
	}
	if f, ok := params[0].(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return params[1], nil
	}
	return params[0], nil
}

func xlMax(params ...any) (any, error) {
	nums, err := numbers("MAX", params)
	if err != nil || len(nums) == 0 {
		return 0.0, err
	}
	best := nums[0]
	for _, n := range nums[1:] {
		best = math.Max(best, n)
	}
	return best, nil
}

func xlMin(params ...any) (any, error) {
	nums, err := numbers("MIN", params)
	if err != nil || len(nums) == 0 {
		return 0.0, err
	}
	best := nums[0]
	for _, n := range nums[1:] {
		best = math.Min(best, n)
	}
	return best, nil
}

func xlSum(params ...any) (any, error) {
	nums, err := numbers("SUM", params)
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total, err
}

// xlSumIf supports criteria that are a number or a string with an optional
// comparison prefix ("<3", ">=0.5", "<>0").
func xlSumIf(params ...any) (any, error) {
	if len(params) != 3 {
		return nil, fmt.Errorf("SUMIF: want 3 arguments, got %d", len(params))
	}
	rng, ok1 := params[0].([]any)
	sumRng, ok2 := params[2].([]any)
	if !ok1 || !ok2 || len(rng) != len(sumRng) {
		return nil, fmt.Errorf("SUMIF: ranges must be lists of equal length")
	}
	match, err := criterion(params[1])
	if err != nil {
		return nil, err
	}
	total := 0.0
	for i, v := range rng {
		if !match(v) {
			continue
		}
		if f, ok := toFloat(sumRng[i]); ok {
			total += f
		}
	}
	return total, nil
}

func criterion(c any) (func(any) bool, error) {
	if f, ok := toFloat(c); ok {
		return func(v any) bool {
			g, ok := toFloat(v)
			return ok && g == f
		}, nil
	}
	s, ok := c.(string)
	if !ok {
		return nil, fmt.Errorf("SUMIF: unsupported criteria %T", c)
	}
	op := "="
	for _, prefix := range []string{"<=", ">=", "<>", "<", ">", "="} {
		if strings.HasPrefix(s, prefix) {
			op, s = prefix, s[len(prefix):]
			break
		}
	}
	want, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("SUMIF: non-numeric criteria %q", s)
	}
	return func(v any) bool {
		g, ok := toFloat(v)
		if !ok {
			return false
		}
		switch op {
		case "<":
			return g < want
		case "<=":
			return g <= want
		case ">":
			return g > want
		case ">=":
			return g >= want
		case "<>":
			return g != want
		default:
			return g == want
		}
	}, nil
}

func xlPower(params ...any) (any, error) {
	nums, err := numbers("POWER", params)
	if err != nil {
		return nil, err
	}
	if len(nums) != 2 {
		return nil, fmt.Errorf("POWER: want 2 arguments, got %d", len(nums))
	}
	return math.Pow(nums[0], nums[1]), nil
}

func xlDays(params ...any) (any, error) {
	nums, err := numbers("DAYS", params)
	if err != nil {
		return nil, err
	}
	if len(nums) != 2 {
		return nil, fmt.Errorf("DAYS: want 2 arguments, got %d", len(nums))
	}
	return math.Trunc(nums[0]) - math.Trunc(nums[1]), nil
}

func xlIsBlank(params ...any) (any, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("ISBLANK: want 1 argument, got %d", len(params))
	}
	switch v := params[0].(type) {
	case nil:
		return true, nil
	case string:
		return v == "", nil
	}
	return false, nil
}

func xlOr(params ...any) (any, error) {
	for _, p := range params {
		if truthy(p) {
			return true, nil
		}
	}
	return false, nil
}

func xlAnd(params ...any) (any, error) {
	for _, p := range params {
		if !truthy(p) {
			return false, nil
		}
	}
	return len(params) > 0, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(x, "TRUE")
	}
	f, ok := toFloat(v)
	return ok && f != 0
}

// numbers flattens scalar and list arguments into floats. Blanks count as zero.
func numbers(fn string, params []any) ([]float64, error) {
	var out []float64
	for _, p := range params {
		if list, ok := p.([]any); ok {
			for _, item := range list {
				if f, ok := toFloat(item); ok {
					out = append(out, f)
				}
			}
			continue
		}
		f, ok := toFloat(p)
		if !ok {
			return nil, fmt.Errorf("%s: non-numeric argument %v", fn, p)
		}
		out = append(out, f)
	}
	return out, nil
}
