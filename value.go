package xlcap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is a node of a cap-table document: a Literal, a *Formula, an Object or a List.
type Value interface {
	isValue()
}

// Literal is a plain JSON scalar (string, float64, bool or nil).
type Literal struct {
	V any
}

// Object is a JSON object whose members are Values.
type Object map[string]Value

// List is a JSON array of Values.
type List []Value

// Dependency binds a placeholder token in a formula template to a layout identifier.
type Dependency struct {
	Placeholder string  `json:"placeholder"`
	Path        string  `json:"path"`
	RefType     RefType `json:"reference_type"`
}

// Formula is a formula encoding object: a template with bare placeholder tokens and
// the dependencies that resolve them.
type Formula struct {
	Template     string       `json:"formula_string"`
	Dependencies []Dependency `json:"dependency_refs"`
	OutputType   string       `json:"output_type"`
}

func (Literal) isValue()  {}
func (*Formula) isValue() {}
func (Object) isValue()   {}
func (List) isValue()     {}

// MarshalJSON writes the FEO wire form, including is_calculated.
func (f *Formula) MarshalJSON() ([]byte, error) {
	type wire Formula
	return json.Marshal(struct {
		IsCalculated bool `json:"is_calculated"`
		*wire
	}{true, (*wire)(f)})
}

// NewFormula builds a Formula from a template and placeholder/path pairs that all
// share one reference type.
func NewFormula(template, outputType string, refType RefType, pairs ...string) *Formula {
	f := &Formula{Template: template, OutputType: outputType}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Dependencies = append(f.Dependencies, Dependency{
			Placeholder: pairs[i],
			Path:        pairs[i+1],
			RefType:     refType,
		})
	}
	return f
}

// With appends one dependency and returns f.
func (f *Formula) With(placeholder, path string, refType RefType) *Formula {
	f.Dependencies = append(f.Dependencies, Dependency{Placeholder: placeholder, Path: path, RefType: refType})
	return f
}

// DecodeValue parses a JSON document into a Value tree.
func DecodeValue(data []byte) (Value, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return ToValue(raw)
}

// ToValue converts a generic decoded JSON value into a Value tree. Objects carrying
// is_calculated == true become *Formula; a malformed one is an error naming its
// JSON pointer.
func ToValue(raw any) (Value, error) {
	return toValue(raw, "")
}

func toValue(raw any, path string) (Value, error) {
	switch v := raw.(type) {
	case map[string]any:
		if isCalculated(v) {
			f, issues := formulaFromMap(v, path)
			if f == nil {
				is := firstError(issues)
				return nil, fmt.Errorf("%s: %s", pointerOrRoot(is.Path), is.Message)
			}
			return f, nil
		}
		obj := make(Object, len(v))
		for k, member := range v {
			child, err := toValue(member, path+"/"+escapePointer(k))
			if err != nil {
				return nil, err
			}
			obj[k] = child
		}
		return obj, nil
	case []any:
		list := make(List, len(v))
		for i, item := range v {
			child, err := toValue(item, path+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			list[i] = child
		}
		return list, nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return Literal{V: f}, nil
		}
		return Literal{V: v.String()}, nil
	default:
		return Literal{V: v}, nil
	}
}

// ParseFEO decodes a single formula encoding object. Anything that is not a JSON
// object with is_calculated == true fails with ErrNotFEO.
func ParseFEO(data []byte) (*Formula, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFEO, err)
	}
	m, ok := raw.(map[string]any)
	if !ok || !isCalculated(m) {
		return nil, ErrNotFEO
	}
	f, issues := formulaFromMap(m, "")
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFEO, firstError(issues).Message)
	}
	return f, nil
}

// Walk visits every Formula in v with its JSON pointer. Object members are visited
// in key order so walks are deterministic.
func Walk(v Value, fn func(pointer string, f *Formula) error) error {
	return walk(v, "", fn)
}

func walk(v Value, path string, fn func(string, *Formula) error) error {
	switch n := v.(type) {
	case *Formula:
		return fn(path, n)
	case Object:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := walk(n[k], path+"/"+escapePointer(k), fn); err != nil {
				return err
			}
		}
	case List:
		for i, item := range n {
			if err := walk(item, path+"/"+strconv.Itoa(i), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func isCalculated(m map[string]any) bool {
	b, ok := m["is_calculated"].(bool)
	return ok && b
}

// formulaFromMap converts a decoded FEO object. It reports every structural problem
// it finds, warnings included, and returns a nil Formula when any of them is an error.
func formulaFromMap(m map[string]any, path string) (*Formula, []ValidationIssue) {
	var issues []ValidationIssue
	errorf := func(p, format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: SeverityError, Path: p, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(p, format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: SeverityWarning, Path: p, Message: fmt.Sprintf(format, args...)})
	}

	f := &Formula{}
	switch t := m["formula_string"].(type) {
	case nil:
		errorf(path+"/formula_string", "missing formula_string")
	case string:
		if strings.TrimSpace(t) == "" {
			errorf(path+"/formula_string", "empty formula_string")
		}
		f.Template = t
	default:
		errorf(path+"/formula_string", "formula_string must be a string, got %s", jsonKind(t))
	}

	switch o := m["output_type"].(type) {
	case nil:
		errorf(path+"/output_type", "missing output_type")
	case string:
		f.OutputType = o
	default:
		errorf(path+"/output_type", "output_type must be a string, got %s", jsonKind(o))
	}

	deps, present := m["dependency_refs"]
	list, isList := deps.([]any)
	switch {
	case !present:
		errorf(path+"/dependency_refs", "missing dependency_refs")
	case !isList:
		errorf(path+"/dependency_refs", "dependency_refs must be an array, got %s", jsonKind(deps))
	}
	for i, item := range list {
		p := path + "/dependency_refs/" + strconv.Itoa(i)
		dm, ok := item.(map[string]any)
		if !ok {
			errorf(p, "dependency must be an object, got %s", jsonKind(item))
			continue
		}
		var d Dependency
		for _, field := range []struct {
			key string
			dst *string
		}{{"placeholder", &d.Placeholder}, {"path", &d.Path}} {
			switch s := dm[field.key].(type) {
			case nil:
				warnf(p+"/"+field.key, "missing %s; dependency is skipped", field.key)
			case string:
				if s == "" {
					warnf(p+"/"+field.key, "empty %s; dependency is skipped", field.key)
				}
				*field.dst = s
			default:
				errorf(p+"/"+field.key, "%s must be a string, got %s", field.key, jsonKind(s))
			}
		}
		switch rt := dm["reference_type"].(type) {
		case nil:
		case string:
			d.RefType = RefType(rt)
			if !knownRefType(d.RefType) {
				errorf(p+"/reference_type", "unknown reference_type %q", rt)
			}
		default:
			errorf(p+"/reference_type", "reference_type must be a string, got %s", jsonKind(rt))
		}
		if d.Placeholder != "" && strings.TrimSpace(f.Template) != "" && !templateHasToken(f.Template, d.Placeholder) {
			warnf(p+"/placeholder", "placeholder %q does not appear in formula_string", d.Placeholder)
		}
		f.Dependencies = append(f.Dependencies, d)
	}

	if firstError(issues) != nil {
		return nil, issues
	}
	return f, issues
}

func firstError(issues []ValidationIssue) *ValidationIssue {
	for i := range issues {
		if issues[i].Severity == SeverityError {
			return &issues[i]
		}
	}
	return nil
}

func knownRefType(t RefType) bool {
	switch t {
	case "", RefNamedRange, RefStructured, RefCell, RefUUIDLookup:
		return true
	}
	return false
}

// templateHasToken reports whether placeholder occurs as a whole token.
func templateHasToken(template, placeholder string) bool {
	const marker = "\x00"
	out, err := SubstituteTokens(template, map[string]string{placeholder: marker})
	return err != nil || strings.Contains(out, marker)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// escapePointer escapes a JSON pointer reference token.
func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
