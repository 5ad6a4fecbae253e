package xlcap

import (
	"fmt"
	"strings"

	"github.com/xuri/efp"
)

// formulaBody strips surrounding space and the leading "=".
func formulaBody(formula string) string {
	return strings.TrimPrefix(strings.TrimSpace(formula), "=")
}

// tokenize splits a formula into efp tokens, skipping whitespace.
func tokenize(formula string) []efp.Token {
	body := formulaBody(formula)
	if body == "" {
		return nil
	}
	ps := efp.ExcelParser()
	var out []efp.Token
	for _, tok := range ps.Parse(body) {
		if tok.TType == efp.TokenTypeWhitespace {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// EnsureFormula prefixes s with "=" unless it already starts with one.
func EnsureFormula(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=") {
		return s
	}
	return "=" + s
}

// SubstituteTokens replaces every operand token of formula that exactly equals a key
// of repl. Matching is on whole tokens, so "amount" never touches "amount_total",
// and function names and string literals are left alone. Text between tokens is
// copied verbatim. It fails when a placeholder token cannot be located in the
// formula text.
func SubstituteTokens(formula string, repl map[string]string) (string, error) {
	if len(repl) == 0 {
		return formula, nil
	}
	lead := ""
	trimmed := strings.TrimSpace(formula)
	if strings.HasPrefix(trimmed, "=") {
		lead = "="
	}
	body := formulaBody(formula)
	ps := efp.ExcelParser()
	tokens := ps.Parse(body)
	if len(tokens) == 0 {
		return formula, nil
	}

	src := scanQuoted(body)
	var b strings.Builder
	b.WriteString(lead)
	pos := 0
	for _, tok := range tokens {
		if tok.TValue == "" && tok.TSubType != efp.TokenSubTypeText {
			continue
		}
		start, end, ok := src.locate(tok, pos)
		addr, isPlaceholder := repl[tok.TValue]
		isPlaceholder = isPlaceholder && tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange
		if !ok {
			if isPlaceholder {
				return "", fmt.Errorf("locate placeholder %q in %q", tok.TValue, formula)
			}
			continue
		}
		if isPlaceholder {
			b.WriteString(body[pos:start])
			b.WriteString(addr)
			pos = end
			continue
		}
		b.WriteString(body[pos:end])
		pos = end
	}
	b.WriteString(body[pos:])
	return b.String(), nil
}

// quotedSpan is a double-quoted string literal or a single-quoted sheet path,
// quotes included.
type quotedSpan struct {
	start, end int
	quote      byte
}

// formulaSource is formula text with its quoted spans blanked out, so searching it
// for a token never lands inside a literal.
type formulaSource struct {
	text   string
	masked string
	spans  []quotedSpan
}

func scanQuoted(body string) formulaSource {
	src := formulaSource{text: body}
	masked := []byte(body)
	inBracket := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case inBracket:
			inBracket = c != ']'
			continue
		case c == '[':
			inBracket = true
			continue
		case c != '"' && c != '\'':
			continue
		}
		j := i + 1
		for j < len(body) {
			if body[j] == c {
				if j+1 < len(body) && body[j+1] == c {
					j += 2
					continue
				}
				break
			}
			j++
		}
		end := min(j+1, len(body))
		src.spans = append(src.spans, quotedSpan{start: i, end: end, quote: c})
		for k := i; k < end; k++ {
			masked[k] = 0
		}
		i = end - 1
	}
	src.masked = string(masked)
	return src
}

// nextSpan returns the first quoted span of the given kind starting at or after pos.
func (s formulaSource) nextSpan(quote byte, pos int) (quotedSpan, bool) {
	for _, sp := range s.spans {
		if sp.quote == quote && sp.start >= pos {
			return sp, true
		}
	}
	return quotedSpan{}, false
}

// locate finds the source text of tok at or after pos. efp unquotes text literals
// and sheet paths, so those are matched against the quoted spans instead.
func (s formulaSource) locate(tok efp.Token, pos int) (start, end int, ok bool) {
	if tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeText {
		sp, found := s.nextSpan('"', pos)
		if !found {
			return 0, 0, false
		}
		return sp.start, sp.end, true
	}
	if idx := strings.Index(s.masked[pos:], tok.TValue); idx >= 0 {
		return pos + idx, pos + idx + len(tok.TValue), true
	}
	sp, found := s.nextSpan('\'', pos)
	if !found {
		return 0, 0, false
	}
	inner := s.text[sp.start+1 : max(sp.end-1, sp.start+1)]
	path := strings.ReplaceAll(inner, "''", "'")
	if !strings.HasPrefix(tok.TValue, path) {
		return 0, 0, false
	}
	rest := tok.TValue[len(path):]
	if !strings.HasPrefix(s.masked[sp.end:], rest) {
		return 0, 0, false
	}
	return sp.start, sp.end + len(rest), true
}

// HasDivision reports whether the formula contains a "/" infix operator. Slashes in
// string literals, error values and quoted names do not count.
func HasDivision(formula string) bool {
	for _, tok := range tokenize(formula) {
		if tok.TType == efp.TokenTypeOperatorInfix && tok.TValue == "/" {
			return true
		}
	}
	return false
}

// IsWrapped reports whether the whole formula is a single IFERROR(...) call.
// "=IFERROR(a/b,0)+c/d" is not wrapped: its IFERROR closes before the end.
func IsWrapped(formula string) bool {
	tokens := tokenize(formula)
	if len(tokens) < 2 {
		return false
	}
	first := tokens[0]
	if first.TType != efp.TokenTypeFunction || first.TSubType != efp.TokenSubTypeStart ||
		!strings.EqualFold(first.TValue, "IFERROR") {
		return false
	}
	depth := 0
	for i, tok := range tokens {
		if tok.TType != efp.TokenTypeFunction && tok.TType != efp.TokenTypeSubexpression {
			continue
		}
		switch tok.TSubType {
		case efp.TokenSubTypeStart:
			depth++
		case efp.TokenSubTypeStop:
			depth--
			if depth == 0 {
				return i == len(tokens)-1
			}
		}
	}
	return false
}

// WrapSafeDivision ensures the formula starts with "=" and, when it divides and is
// not already wrapped, wraps the whole expression in IFERROR(expr,0). Calling it
// again on its own output returns the output unchanged.
func WrapSafeDivision(formula string) string {
	f := EnsureFormula(formula)
	if !HasDivision(f) || IsWrapped(f) {
		return f
	}
	return "=IFERROR(" + formulaBody(f) + ",0)"
}
