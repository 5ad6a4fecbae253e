// Package finance builds spreadsheet formula templates for cap-table mathematics.
//
// Every function is pure. Arguments are reference strings: resolved addresses
// ("Summary!$B$3", "Ledger[@[shares]]"), named ranges ("Total_FDS") or bare
// placeholder tokens to be resolved later. Results start with "=" and any division
// that can hit zero degrades to 0 through IFERROR.
package finance

import (
	"regexp"
	"strings"
)

// atomRe matches references and numbers that never need parentheses.
var atomRe = regexp.MustCompile(`^(?:'[^']*'!|[A-Za-z_][\w.]*!)?[\w.$@#\[\]]+$`)

// formula adds the leading "=".
func formula(expr string) string {
	return "=" + expr
}

// Expr strips the leading "=" so a generated formula can be nested in another one.
func Expr(f string) string {
	return strings.TrimPrefix(strings.TrimSpace(f), "=")
}

// paren wraps expr in parentheses unless it is a single reference, number,
// function call or already parenthesized group.
func paren(expr string) string {
	if isAtom(expr) {
		return expr
	}
	return "(" + expr + ")"
}

func isAtom(expr string) bool {
	if atomRe.MatchString(expr) {
		return true
	}
	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return false
	}
	if open > 0 && !atomRe.MatchString(expr[:open]) {
		return false
	}
	depth := 0
	inString := false
	for i := open; i < len(expr); i++ {
		switch c := expr[i]; {
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i == len(expr)-1
			}
		}
	}
	return false
}

// safeDiv is num/den that yields 0 instead of a #DIV/0! error.
func safeDiv(num, den string) string {
	return "IFERROR(" + paren(num) + "/" + paren(den) + ",0)"
}

// SafeDivide returns =IFERROR(num/den,0).
func SafeDivide(num, den string) string {
	return formula(safeDiv(num, den))
}

// Sum returns =SUM(refs...).
func Sum(refs ...string) string {
	return formula("SUM(" + strings.Join(refs, ",") + ")")
}

// SumIf returns =SUMIF(rng,criteria,sumRange).
func SumIf(rng, criteria, sumRange string) string {
	return formula("SUMIF(" + rng + "," + criteria + "," + sumRange + ")")
}

// Add returns the sum of terms written with "+".
func Add(terms ...string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = paren(t)
	}
	return formula(strings.Join(parts, "+"))
}

// Product returns =a*b.
func Product(a, b string) string {
	return formula(paren(a) + "*" + paren(b))
}
