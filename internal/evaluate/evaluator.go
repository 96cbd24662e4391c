// Package evaluate sanitizes and evaluates canonical arithmetic expressions.
//
// Every failure collapses to domain.MathError with a Kind describing why; the
// evaluator never panics and never returns a Go error.
package evaluate

import (
	"fmt"
	"strings"

	"voicecalc/internal/domain"
	"voicecalc/internal/matcher"
)

type Result struct {
	Value string           `json:"value"`
	Kind  domain.ErrorKind `json:"kind,omitempty"`
	// Detail explains a failure for logs and error events.
	Detail string `json:"detail,omitempty"`
	// Sanitized is the text handed to the engine.
	Sanitized string `json:"-"`
}

func (r Result) OK() bool { return r.Kind == domain.ErrorKindNone }

func failure(kind domain.ErrorKind, detail string) Result {
	return Result{Value: domain.MathError, Kind: kind, Detail: detail}
}

type Evaluator struct {
	engine Engine
}

type Option func(*Evaluator)

// WithEngine replaces the built-in arithmetic engine.
func WithEngine(e Engine) Option {
	return func(ev *Evaluator) { ev.engine = e }
}

func New(opts ...Option) *Evaluator {
	ev := &Evaluator{engine: arithmetic{}}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

var (
	glyphs = strings.NewReplacer("×", "*", "·", "*", "∙", "*", "÷", "/", "−", "-")

	decimalComma    = matcher.MustCompile(`(?<=[0-9]),(?=[0-9])`)
	bareNumber      = matcher.MustCompile(`^\s*-?[0-9]+(?:\.[0-9]+)?\s*$`)
	leadingOp       = matcher.MustCompile(`^\s*[+\-*/^]`)
	trailingOp      = matcher.MustCompile(`[+\-*/^]\s*$`)
	percentOperand  = matcher.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*%`)
	trailingPercent = matcher.MustCompile(`%\s*$`)
	allowed         = matcher.MustCompile(`^[0-9+\-*/.()^\s]*$`)
)

// Evaluate checks and evaluates expr. Speech input gets two extra checks: a
// bare number is rejected as ambiguous dictation and a dangling operator as
// incomplete. Results are formatted as plain digit strings for every
// language; code is accepted so callers can pass the session language along.
func (ev *Evaluator) Evaluate(expr string, src domain.SourceType, code string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(domain.ErrorKindEvaluationFailure, fmt.Sprintf("evaluator panic: %v", r))
		}
	}()

	if strings.TrimSpace(expr) == "" {
		return failure(domain.ErrorKindEmptyInput, "empty expression")
	}

	s := glyphs.Replace(expr)
	s = decimalComma.ReplaceAll(s, ".")

	if src == domain.SourceTypeSpeech {
		if bareNumber.Match(s) {
			return failure(domain.ErrorKindAmbiguousVoiceNumber, "a number without an operator")
		}
		if trailingOp.Match(s) && !leadingOp.Match(s) {
			return failure(domain.ErrorKindIncompleteExpression, "expression ends with an operator")
		}
	}

	s = percentOperand.Replace(s, func(g matcher.Groups) string {
		return "(" + g.String(1) + "/100)"
	})
	s = trailingPercent.ReplaceAll(s, "/100")

	if !allowed.Match(strings.ReplaceAll(s, "sqrt", "")) {
		return failure(domain.ErrorKindInvalidCharacters, "expression contains characters outside the arithmetic set")
	}

	v, err := ev.engine.Eval(s)
	if err != nil {
		res = failure(domain.ErrorKindEvaluationFailure, err.Error())
		res.Sanitized = s
		return res
	}
	return Result{Value: Format(v), Sanitized: s}
}
