package evaluate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// Engine evaluates a sanitized arithmetic expression.
type Engine interface {
	Eval(expr string) (float64, error)
}

var ErrNotFinite = errors.New("result is not a finite number")

// arithmetic is the default Engine. Grammar, lowest precedence first:
//
//	expr   := term (('+' | '-') term)*
//	term   := unary (('*' | '/') unary)*
//	unary  := ('+' | '-') unary | power
//	power  := prefix ('^' unary)?
//	prefix := 'sqrt' prefix | primary
//	primary:= number | '(' expr ')'
//
// '^' binds tighter than unary minus and is right-associative, so -2^2 is -4
// and 2^3^2 is 512.
type arithmetic struct{}

func (arithmetic) Eval(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, errors.New("empty expression")
	}

	p := &parser{tokens: tokens}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos < len(p.tokens) {
		return 0, fmt.Errorf("unexpected token %q at position %d", p.tokens[p.pos].value, p.pos)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

type tokenKind int

const (
	tkNumber tokenKind = iota
	tkOp               // + - * / ^
	tkSqrt
	tkLParen
	tkRParen
)

type token struct {
	kind  tokenKind
	value string
	num   float64
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0

	for i < len(runes) {
		ch := runes[i]
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tkLParen, value: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tkRParen, value: ")"})
			i++
		case ch == '+' || ch == '-' || ch == '*' || ch == '/' || ch == '^':
			tokens = append(tokens, token{kind: tkOp, value: string(ch)})
			i++
		case isDigit(ch) || ch == '.':
			start := i
			for i < len(runes) && isDigit(runes[i]) {
				i++
			}
			if i < len(runes) && runes[i] == '.' {
				i++
				for i < len(runes) && isDigit(runes[i]) {
					i++
				}
			}
			text := string(runes[start:i])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", text)
			}
			tokens = append(tokens, token{kind: tkNumber, value: text, num: v})
		case i+4 <= len(runes) && string(runes[i:i+4]) == "sqrt":
			tokens = append(tokens, token{kind: tkSqrt, value: "sqrt"})
			i += 4
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", string(ch), i)
		}
	}
	return tokens, nil
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

type parser struct {
	tokens []token
	pos    int
	depth  int
}

// maxDepth bounds recursion on inputs like "((((((...".
const maxDepth = 256

func (p *parser) peek() *token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *parser) isOp(values ...string) (string, bool) {
	t := p.peek()
	if t == nil || t.kind != tkOp {
		return "", false
	}
	for _, v := range values {
		if t.value == v {
			return v, true
		}
	}
	return "", false
}

func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.isOp("+", "-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == "+" {
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
		op, ok := p.isOp("*", "/")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			left *= right
			continue
		}
		if right == 0 {
			return 0, errors.New("division by zero")
		}
		left /= right
	}
}

func (p *parser) parseUnary() (float64, error) {
	if op, ok := p.isOp("+", "-"); ok {
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePrefix()
	if err != nil {
		return 0, err
	}
	if _, ok := p.isOp("^"); !ok {
		return base, nil
	}
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()
	p.pos++
	exp, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *parser) parsePrefix() (float64, error) {
	t := p.peek()
	if t != nil && t.kind == tkSqrt {
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()
		p.pos++
		v, err := p.parsePrefix()
		if err != nil {
			return 0, err
		}
		if v < 0 {
			return 0, errors.New("square root of a negative number")
		}
		return math.Sqrt(v), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, error) {
	t := p.peek()
	if t == nil {
		return 0, errors.New("unexpected end of expression")
	}
	switch t.kind {
	case tkNumber:
		p.pos++
		return t.num, nil
	case tkLParen:
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if next := p.peek(); next == nil || next.kind != tkRParen {
			return 0, errors.New("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected token %q at position %d", t.value, p.pos)
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return errors.New("expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }
