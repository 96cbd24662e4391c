// Package normalize rewrites a spoken transcript into a canonical arithmetic
// expression.
//
// The passes run in a fixed order and each one sees the lower-cased output of
// the previous one. The order matters: percentage and fraction phrases are
// rewritten before the generic operator words, otherwise a bare "percent"
// substitution would destroy a phrase that was not yet recognized.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"voicecalc/internal/matcher"
)

// Cache provides compiled matchers per language code.
type Cache interface {
	Get(code string) (*matcher.Compiled, error)
}

type Pipeline struct {
	cache Cache
}

func NewPipeline(cache Cache) *Pipeline {
	return &Pipeline{cache: cache}
}

// Normalize rewrites transcript using the matchers of the given language.
// Unsupported codes use the default language.
func (p *Pipeline) Normalize(transcript, code string) (string, error) {
	compiled, err := p.cache.Get(code)
	if err != nil {
		return "", err
	}
	return Apply(transcript, compiled), nil
}

type pass struct {
	name string
	fn   func(string, *matcher.Compiled) string
}

var passes = []pass{
	{"dehyphenate", dehyphenate},
	{"digit groups", collapseDigitGroups},
	{"large numbers", compoundLargeNumbers},
	{"spelled numbers", spelledNumbers},
	{"fractions", fractions},
	{"percentages", percentages},
	{"templates", templates},
	{"operators", operators},
	{"cleanup", cleanup},
}

// Apply runs every pass over transcript. It is deterministic and never fails;
// text a pass does not recognize is carried through for the next one.
func Apply(transcript string, c *matcher.Compiled) string {
	s := strings.ToLower(transcript)
	for _, p := range passes {
		s = p.fn(s, c)
	}
	return s
}

// Step is the output of one pass.
type Step struct {
	Pass   string `json:"pass"`
	Output string `json:"output"`
}

// Trace runs the passes like Apply and records the text after each one.
func Trace(transcript string, c *matcher.Compiled) []Step {
	s := strings.ToLower(transcript)
	steps := make([]Step, 0, len(passes))
	for _, p := range passes {
		s = p.fn(s, c)
		steps = append(steps, Step{Pass: p.name, Output: strings.ReplaceAll(s, matcher.Marker, "")})
	}
	return steps
}

var (
	letterHyphen = matcher.MustCompile("(?<=\\p{L})[-\u2010\u2011](?=\\p{L})")
	digitGroup   = matcher.MustCompile("(?<![0-9.,])([0-9]+)[ ,\u00a0\u202f]([0-9]{3})(?![0-9])")
)

// dehyphenate joins "twenty-five" into "twentyfive" so the hyphen is not read
// as a minus sign. Hyphens between digits are kept.
func dehyphenate(s string, _ *matcher.Compiled) string {
	return letterHyphen.ReplaceAll(s, "")
}

// collapseDigitGroups merges thousands groups ("1 000", "1,000") into one
// number. Only groups of exactly three digits merge, so a decimal comma such
// as "1,5" survives.
func collapseDigitGroups(s string, _ *matcher.Compiled) string {
	return digitGroup.ReplaceStable(s, func(g matcher.Groups) string {
		return g.String(1) + g.String(2)
	})
}

// compoundLargeNumbers expands "2 million" and "1,5 milliards" while the
// operand is still made of digits.
func compoundLargeNumbers(s string, c *matcher.Compiled) string {
	return c.Percentage.Outside(s, func(seg string) string {
		for _, m := range c.Magnitudes {
			seg = applyMagnitude(seg, m, false)
		}
		return seg
	})
}

// spelledNumbers replaces number words with digits and then composes runs of
// them: "two thousand five hundred and six" becomes "2506".
func spelledNumbers(s string, c *matcher.Compiled) string {
	s = c.Numbers.Replace(s, func(g matcher.Groups) string {
		d, ok := c.Number(g.String(0))
		if !ok {
			return g.String(0)
		}
		return matcher.Marker + d
	})
	s = c.Percentage.Outside(s, func(seg string) string {
		return composeNumbers(seg, c)
	})
	return strings.ReplaceAll(s, matcher.Marker, "")
}

func composeNumbers(s string, c *matcher.Compiled) string {
	s = mergeNumbers(s, c)
	for _, m := range c.Magnitudes {
		s = applyMagnitude(s, m, true)
		s = mergeNumbers(s, c)
	}
	return s
}

// mergeNumbers sums adjacent spelled numbers that form a descending place
// value run: "20 5" is 25, "100 20" is 120, but "2 3" stays apart.
func mergeNumbers(s string, c *matcher.Compiled) string {
	return c.NumberMerge.ReplaceStable(s, func(g matcher.Groups) string {
		a, errA := strconv.ParseInt(g.String(1), 10, 64)
		b, errB := strconv.ParseInt(g.String(2), 10, 64)
		if errA != nil || errB != nil || a == 0 || b >= placeValue(a) {
			return g.String(0)
		}
		return matcher.Marker + strconv.FormatInt(a+b, 10)
	})
}

// placeValue is 10^(trailing zeros of n).
func placeValue(n int64) int64 {
	p := int64(1)
	for n != 0 && n%10 == 0 {
		n /= 10
		p *= 10
	}
	return p
}

// applyMagnitude multiplies the number in front of a magnitude word. With
// bare set, a magnitude word without a number stands for its own value
// ("hundred" is 100) and a joined tail smaller than the magnitude is added
// ("hundred and 5" is 105).
func applyMagnitude(s string, m matcher.Magnitude, bare bool) string {
	return m.Matcher.Replace(s, func(g matcher.Groups) string {
		whole := g.String(0)
		n := 1.0
		if raw, ok := g.Get(1); ok {
			v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
			if err != nil {
				return whole
			}
			n = v
		} else if !bare {
			return whole
		}

		value := n * m.Value
		out := matcher.Marker + formatNumber(value)
		if joiner, ok := g.Get(2); ok {
			tail, err := strconv.ParseFloat(g.String(3), 64)
			if err == nil && tail < m.Value {
				return matcher.Marker + formatNumber(value+tail)
			}
			return out + joiner + matcher.Marker + g.String(3)
		}
		return out
	})
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e18 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fractions rewrites "3/4 of 20" and "three quarters of 20" into
// "((3/4) * 20)". A fraction word with no count in front ("half of 10")
// counts once.
func fractions(s string, c *matcher.Compiled) string {
	s = c.FractionSlash.Replace(s, func(g matcher.Groups) string {
		return "((" + g.String(1) + "/" + g.String(2) + ") * " + g.String(3) + ")"
	})
	return c.FractionWord.Replace(s, func(g matcher.Groups) string {
		d, ok := c.Denominator(g.String(2))
		if !ok {
			return g.String(0)
		}
		n := "1"
		if v, ok := g.Get(1); ok {
			n = v
		}
		return "((" + n + "/" + strconv.Itoa(d) + ") * " + g.String(3) + ")"
	})
}

// percentages rewrites the phrase forms of percentages before the generic
// operator pass sees the words.
func percentages(s string, c *matcher.Compiled) string {
	increase := func(g matcher.Groups) string {
		return "(" + g.String(2) + " * (1 + " + g.String(1) + "/100))"
	}
	decrease := func(g matcher.Groups) string {
		return "(" + g.String(2) + " * (1 - " + g.String(1) + "/100))"
	}
	for _, m := range c.AddPercent {
		s = m.Replace(s, increase)
	}
	for _, m := range c.SubtractPercent {
		s = m.Replace(s, decrease)
	}
	s = c.PercentOf.Replace(s, func(g matcher.Groups) string {
		return "(" + g.String(2) + " * " + g.String(1) + " / 100)"
	})
	s = c.PlusPercent.Replace(s, func(g matcher.Groups) string {
		return "(" + g.String(1) + " * (1 + " + g.String(2) + "/100))"
	})
	return c.MinusPercent.Replace(s, func(g matcher.Groups) string {
		return "(" + g.String(1) + " * (1 - " + g.String(2) + "/100))"
	})
}

// templates rewrites the phrase templates ("subtract 3 from 10") into binary
// operator form.
func templates(s string, c *matcher.Compiled) string {
	for _, tpl := range c.Templates {
		s = tpl.Matcher.Replace(s, func(g matcher.Groups) string {
			ops := make([]string, tpl.Groups)
			for i := range ops {
				ops[i] = g.String(i + 1)
			}
			return " " + emit(tpl.Kind, ops) + " "
		})
	}
	return s
}

func emit(kind matcher.TemplateKind, ops []string) string {
	switch kind {
	case matcher.TemplateSubtract:
		// "subtract A from B" is B - A; "subtract A and B from C" is C - A - B.
		last := ops[len(ops)-1]
		return strings.Join(append([]string{last}, ops[:len(ops)-1]...), " - ")
	case matcher.TemplateMultiply:
		return strings.Join(ops, " * ")
	case matcher.TemplateDivide:
		return strings.Join(ops, " / ")
	default:
		return strings.Join(ops, " + ")
	}
}

// operators replaces the remaining operator words with their symbols and
// turns a spoken decimal marker between digits into a point.
func operators(s string, c *matcher.Compiled) string {
	s = c.Operators.Replace(s, func(g matcher.Groups) string {
		tok := c.Operator(g.String(0))
		if tok == "" {
			return g.String(0)
		}
		return " " + tok + " "
	})
	return c.Decimal.ReplaceAll(s, ".")
}

var (
	letters        = matcher.MustCompile(`\p{L}+`)
	quotes         = matcher.MustCompile(`['"’‘“”´` + "`" + `]`)
	punctuation    = matcher.MustCompile(`[?!¿¡=:;]`)
	strayCommas    = matcher.MustCompile(`(?<![0-9]),|,(?![0-9])`)
	trailingPeriod = matcher.MustCompile(`\.\s*$`)
	doublePlus     = matcher.MustCompile(`\+\s*\+`)
	spaces         = matcher.MustCompile(`\s+`)
)

const sqrtToken = "sqrt"
const sqrtPlaceholder = "\x00"

// cleanup strips everything that is not part of an arithmetic expression.
func cleanup(s string, c *matcher.Compiled) string {
	s = c.Fillers.ReplaceAll(s, " ")
	s = strings.ReplaceAll(s, sqrtToken, sqrtPlaceholder)
	s = letters.ReplaceAll(s, "")
	s = quotes.ReplaceAll(s, "")
	s = punctuation.ReplaceAll(s, " ")
	s = strayCommas.ReplaceAll(s, " ")
	s = trailingPeriod.ReplaceAll(s, " ")
	s = strings.ReplaceAll(s, sqrtPlaceholder, sqrtToken)
	s = doublePlus.ReplaceStable(s, func(matcher.Groups) string { return "+" })
	s = spaces.ReplaceAll(s, " ")
	return strings.TrimSpace(s)
}
