// Package matcher compiles a language's lexicon into the matchers used by the
// normalization pipeline and memoizes them per language.
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"

	"voicecalc/internal/domain"
)

// Marker prefixes numbers that were spelled out in the transcript. Only marked
// numbers take part in number composition; digits the recognizer produced are
// left as they are.
const Marker = "\uE000"

// Num matches one numeric operand, decimal comma included.
const Num = `([0-9]+(?:[.,][0-9]+)?)`

type TemplateKind int

const (
	TemplateAdd TemplateKind = iota
	TemplateSubtract
	TemplateMultiply
	TemplateDivide
)

// Template is one compiled phrase template such as "add {n} to {n}".
type Template struct {
	Kind    TemplateKind
	Groups  int
	Source  string
	Matcher *Matcher
}

// Magnitude applies a multiplier word ("thousand", "millones") to the number
// in front of it.
type Magnitude struct {
	Value   float64
	Matcher *Matcher
}

// Compiled is the immutable matcher set of one language. Nil matchers mean the
// corresponding list was empty.
type Compiled struct {
	Code string

	Numbers     *Matcher
	NumberMerge *Matcher
	Magnitudes  []Magnitude
	Percentage  *Matcher

	FractionSlash *Matcher
	FractionWord  *Matcher

	AddPercent      []*Matcher
	SubtractPercent []*Matcher
	PercentOf       *Matcher
	PlusPercent     *Matcher
	MinusPercent    *Matcher

	Templates []Template

	Operators *Matcher
	Decimal   *Matcher
	Fillers   *Matcher

	numbers   map[string]string
	fractions map[string]int
	operators map[string]string
}

// Number returns the digits for a spelled number.
func (c *Compiled) Number(word string) (string, bool) {
	d, ok := c.numbers[Key(word)]
	return d, ok
}

// Denominator returns the denominator a fraction word stands for.
func (c *Compiled) Denominator(word string) (int, bool) {
	d, ok := c.fractions[Key(word)]
	return d, ok
}

// Operator returns the canonical token for an operator phrase.
func (c *Compiled) Operator(phrase string) string {
	return c.operators[Key(phrase)]
}

type compiler struct {
	err error
}

func (c *compiler) compile(name, pattern string) *Matcher {
	if c.err != nil || pattern == "" {
		return nil
	}
	m, err := compilePattern(pattern, regexp2.IgnoreCase)
	if err != nil {
		c.err = fmt.Errorf("compiling %s: %w", name, err)
		return nil
	}
	return m
}

// words compiles a bounded alternation, or nil for an empty list.
func (c *compiler) words(name string, phrases []string) *Matcher {
	alt := alternation(phrases)
	if alt == "" {
		return nil
	}
	return c.compile(name, bounded(alt))
}

// Compile builds the matcher set for p. It is a pure function of p.
func Compile(p domain.LanguagePatterns) (*Compiled, error) {
	c := &compiler{}
	ops := p.Operations

	out := &Compiled{
		Code:      p.Code,
		numbers:   make(map[string]string, len(p.Numbers)),
		fractions: make(map[string]int, len(p.FractionWords)),
	}

	numberWords := make([]string, 0, len(p.Numbers))
	for w, d := range p.Numbers {
		out.numbers[Key(w)] = d
		numberWords = append(numberWords, w)
	}
	out.Numbers = c.words("numbers", numberWords)
	out.NumberMerge = c.compile("number merge",
		Marker+`([0-9]+)\s+`+Marker+`([0-9]+)(?![0-9.,])`)
	out.Magnitudes = compileMagnitudes(c, p)
	out.Percentage = c.words("percentage", ops.Percentage)

	for w, d := range p.FractionWords {
		out.fractions[Key(w)] = d
	}
	fractionWords := make([]string, 0, len(p.FractionWords))
	for w := range p.FractionWords {
		fractionWords = append(fractionWords, w)
	}
	if of := alternation(p.OfWords); of != "" {
		out.FractionSlash = c.compile("fraction slash",
			`(?<![0-9.,])([0-9]+)\s*/\s*([0-9]+)\s+`+bounded(of)+`\s*`+Num)
		if fw := alternation(fractionWords); fw != "" {
			out.FractionWord = c.compile("fraction word",
				`(?:(?<![0-9.,])([0-9]+)\s+)?(`+bounded(fw)+`)\s+`+bounded(of)+`\s*`+Num)
		}
	}

	compilePercent(c, p, out)
	out.Templates = compileTemplates(c, p.SpecificPhrases)
	out.Operators, out.operators = compileOperators(c, ops)
	if alt := alternation(ops.Decimal); alt != "" {
		out.Decimal = c.compile("decimal", `(?<=[0-9])\s*`+bounded(alt)+`\s*(?=[0-9])`)
	}
	out.Fillers = c.words("fillers", p.FillerWords)

	if c.err != nil {
		return nil, fmt.Errorf("language %s: %w", p.Code, c.err)
	}
	return out, nil
}

func compileMagnitudes(c *compiler, p domain.LanguagePatterns) []Magnitude {
	byValue := make(map[float64][]string)
	for w, v := range p.Magnitudes {
		byValue[v] = append(byValue[v], w)
	}
	values := make([]float64, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Float64s(values)

	tail := ""
	if j := alternation(p.NumberJoiners); j != "" {
		tail = `(?:(\s+` + bounded(j) + `\s+)` + Marker + `?([0-9]+)(?![0-9.,]))?`
	}

	out := make([]Magnitude, 0, len(values))
	for _, v := range values {
		pattern := `(?:(?<![0-9.,])` + Marker + `?` + Num + `\s*)?` + bounded(alternation(byValue[v])) + tail
		m := c.compile(fmt.Sprintf("magnitude %g", v), pattern)
		if m != nil {
			out = append(out, Magnitude{Value: v, Matcher: m})
		}
	}
	return out
}

func compilePercent(c *compiler, p domain.LanguagePatterns, out *Compiled) {
	ops := p.Operations
	pct := `\s*%`
	if alt := alternation(ops.Percentage); alt != "" {
		pct = `(?:\s*%|\s*` + bounded(alt) + `)`
	}
	withPct := Num + pct

	for _, tpl := range p.SpecificPhrases.AddTo {
		if strings.Count(tpl, domain.NumberPlaceholder) == 2 {
			if m := c.compile("add percent", templatePattern(tpl, withPct, Num)); m != nil {
				out.AddPercent = append(out.AddPercent, m)
			}
		}
	}
	for _, tpl := range p.SpecificPhrases.SubtractFrom {
		if strings.Count(tpl, domain.NumberPlaceholder) == 2 {
			if m := c.compile("subtract percent", templatePattern(tpl, withPct, Num)); m != nil {
				out.SubtractPercent = append(out.SubtractPercent, m)
			}
		}
	}

	var connectors []string
	if of := alternation(p.OfWords); of != "" {
		connectors = append(connectors, `\s*%\s*`+bounded(of))
	}
	if alt := alternation(ops.PercentOf); alt != "" {
		connectors = append(connectors, `\s*`+bounded(alt))
	}
	if len(connectors) > 0 {
		out.PercentOf = c.compile("percent of",
			`(?<![0-9.,])`+Num+`(?:`+strings.Join(connectors, "|")+`)\s*`+Num)
	}

	plus := `\+`
	if alt := alternation(ops.Addition); alt != "" {
		plus = `(?:\+|` + bounded(alt) + `)`
	}
	out.PlusPercent = c.compile("plus percent", `(?<![0-9.,])`+Num+`\s*`+plus+`\s*`+withPct)

	minus := `-`
	if alt := alternation(ops.Subtraction); alt != "" {
		minus = `(?:-|` + bounded(alt) + `)`
	}
	out.MinusPercent = c.compile("minus percent", `(?<![0-9.,])`+Num+`\s*`+minus+`\s*`+withPct)
}

func compileTemplates(c *compiler, sp domain.SpecificPhrases) []Template {
	lists := []struct {
		kind TemplateKind
		tpls []string
	}{
		{TemplateAdd, sp.AddTo},
		{TemplateSubtract, sp.SubtractFrom},
		{TemplateMultiply, sp.MultiplyBy},
		{TemplateDivide, sp.DivideBy},
	}

	var out []Template
	for _, l := range lists {
		for _, tpl := range l.tpls {
			n := strings.Count(tpl, domain.NumberPlaceholder)
			if n < 2 || n > 3 {
				continue
			}
			m := c.compile("template "+tpl, templatePattern(tpl, Num, Num, Num))
			if m == nil {
				continue
			}
			out = append(out, Template{Kind: l.kind, Groups: n, Source: tpl, Matcher: m})
		}
	}
	// Three-operand forms first so "subtract 2 and 3 from 10" is not taken
	// apart by a two-operand template.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Groups > out[j].Groups
	})
	return out
}

// templatePattern turns "add {n} to {n}" into a regex whose i-th placeholder
// becomes slots[i].
func templatePattern(tpl string, slots ...string) string {
	tokens := strings.Fields(Key(tpl))
	parts := make([]string, 0, len(tokens))
	slot := 0
	lastNum := false
	for _, tok := range tokens {
		if tok == domain.NumberPlaceholder {
			if slot >= len(slots) {
				return ""
			}
			parts = append(parts, slots[slot])
			slot++
			lastNum = true
			continue
		}
		parts = append(parts, regexp2.Escape(tok))
		lastNum = false
	}
	if len(parts) == 0 {
		return ""
	}
	end := `(?!\p{L})`
	if lastNum {
		end = `(?![0-9])`
	}
	return `(?<![\p{L}0-9])` + strings.Join(parts, `[\s,]+`) + end
}

var operatorTokens = []string{"+", "-", "*", "/", "% *", "%", "^", "sqrt", "(", ")"}

func compileOperators(c *compiler, ops domain.Operations) (*Matcher, map[string]string) {
	lists := [][]string{
		ops.Addition, ops.Subtraction, ops.Multiplication, ops.Division,
		ops.PercentOf, ops.Percentage, ops.Power, ops.Sqrt,
		ops.Parentheses.Open, ops.Parentheses.Close,
	}

	tokens := make(map[string]string)
	var phrases []string
	for i, list := range lists {
		for _, p := range list {
			k := Key(p)
			if k == "" {
				continue
			}
			// Earlier categories win when a phrase appears in two lists.
			if _, ok := tokens[k]; ok {
				continue
			}
			tokens[k] = operatorTokens[i]
			phrases = append(phrases, k)
		}
	}
	return c.words("operators", phrases), tokens
}
