package xlcap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Formula cannot be resolved
	SeverityWarning                 // Formula resolves but part of it is ignored
)

// ValidationIssue represents a single problem found in a document.
type ValidationIssue struct {
	Severity Severity
	Path     string // JSON pointer of the offending member
	Message  string
}

// String formats the issue as "[ERROR] /calculations/0/value: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, pointerOrRoot(v.Path), v.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []ValidationIssue) bool {
	return firstError(issues) != nil
}

// ValidateDocument checks every formula encoding object in a JSON document and
// returns all problems found, so a whole document can be reported at once. A non-nil
// error means the data is not JSON at all.
func ValidateDocument(data []byte) ([]ValidationIssue, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return ValidateValue(raw), nil
}

// ValidateValue checks every formula encoding object in an already decoded document.
func ValidateValue(raw any) []ValidationIssue {
	var issues []ValidationIssue
	validateNode(raw, "", &issues)
	return issues
}

func validateNode(raw any, path string, issues *[]ValidationIssue) {
	switch v := raw.(type) {
	case map[string]any:
		if flag, ok := v["is_calculated"]; ok {
			if b, isBool := flag.(bool); !isBool {
				*issues = append(*issues, ValidationIssue{
					Severity: SeverityError,
					Path:     path + "/is_calculated",
					Message:  fmt.Sprintf("is_calculated must be a boolean, got %s", jsonKind(flag)),
				})
			} else if b {
				_, found := formulaFromMap(v, path)
				*issues = append(*issues, found...)
				return
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			validateNode(v[k], path+"/"+escapePointer(k), issues)
		}
	case []any:
		for i, item := range v {
			validateNode(item, path+"/"+strconv.Itoa(i), issues)
		}
	}
}
