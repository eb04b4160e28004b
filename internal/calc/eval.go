package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
)

const operators = "+-*/"

// glyphs maps display operator glyphs back to their ASCII form before cleaning.
var glyphs = strings.NewReplacer("×", "*", "÷", "/", "−", "-")

// Clean drops every character outside [-0-9+*/.] after normalizing display glyphs.
func Clean(expr string) string {
	expr = glyphs.Replace(expr)
	var b strings.Builder
	b.Grow(len(expr))
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if (c >= '0' && c <= '9') || c == '.' || strings.IndexByte(operators, c) >= 0 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Evaluate computes the value of expr. An empty expression is 0. A dangling trailing
// operator is ignored so that "2000+" evaluates to 2000 while the user is still typing.
// Syntax errors and non-finite results return ErrMalformedExpression.
func Evaluate(expr string) (float64, error) {
	cleaned := strings.TrimRight(Clean(expr), operators)
	// "5+." is a pending operand, not a malformed one
	if n := len(cleaned); n > 1 && cleaned[n-1] == '.' && strings.IndexByte(operators, cleaned[n-2]) >= 0 {
		cleaned = strings.TrimRight(cleaned[:n-1], operators)
	}
	if cleaned == "" {
		return 0, nil
	}

	p := parser{src: cleaned}
	v, err := p.parseExpr()
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", common.ErrMalformedExpression, expr, err)
	}
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w: %q: unexpected %q at %d", common.ErrMalformedExpression, expr, p.src[p.pos], p.pos)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q: result is not finite", common.ErrMalformedExpression, expr)
	}
	return v, nil
}

// Value evaluates expr and substitutes 0 for anything that does not evaluate.
func Value(expr string) float64 {
	v, err := Evaluate(expr)
	if err != nil {
		return 0
	}
	return v
}

// Pending reports whether expr still holds an unevaluated operator. A leading
// sign on a plain number does not count.
func Pending(expr string) bool {
	cleaned := Clean(expr)
	return len(cleaned) > 1 && strings.ContainsAny(cleaned[1:], operators)
}

// EvaluateString evaluates expr and renders the result as a plain decimal string.
// Failures render as "0".
func EvaluateString(expr string) string {
	v, err := Evaluate(expr)
	if err != nil {
		return "0"
	}
	return FormatNumber(v)
}

// FormatNumber renders v as the shortest plain decimal string that round-trips. Never uses exponents.
func FormatNumber(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parser is a recursive-descent evaluator for:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = ("-" | "+") unary | number
//	number = digits [ "." digits ] | "." digits
type parser struct {
	src string
	pos int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
		} else {
			left /= right
		}
	}
}

func (p *parser) parseUnary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parseNumber()
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	seenPoint := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' {
			if seenPoint {
				break
			}
			seenPoint = true
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}

	literal := p.src[start:p.pos]
	if literal == "" {
		if p.pos < len(p.src) {
			return 0, fmt.Errorf("expected number at %d, found %q", p.pos, p.src[p.pos])
		}
		return 0, fmt.Errorf("expected number at end of input")
	}

	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", literal)
	}
	return v, nil
}
