package matcher

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single regexp2 evaluation. The lexicon patterns are
// plain alternations so a timeout only fires on pathological input, in which
// case the text is left unchanged.
const matchTimeout = 250 * time.Millisecond

// Matcher is a compiled pattern. A nil *Matcher matches nothing, which is how
// empty word lists are represented.
type Matcher struct {
	re *regexp2.Regexp
}

// Groups holds the capture groups of one match; index 0 is the whole match.
type Groups struct {
	values []string
	ok     []bool
}

// Get returns group i and whether it took part in the match.
func (g Groups) Get(i int) (string, bool) {
	if i < 0 || i >= len(g.values) {
		return "", false
	}
	return g.values[i], g.ok[i]
}

func (g Groups) String(i int) string {
	v, _ := g.Get(i)
	return v
}

// MustCompile compiles pattern and panics on error. Only for patterns fixed at
// build time.
func MustCompile(pattern string) *Matcher {
	m, err := compilePattern(pattern, regexp2.None)
	if err != nil {
		panic(err)
	}
	return m
}

func compilePattern(pattern string, opts regexp2.RegexOptions) (*Matcher, error) {
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return &Matcher{re: re}, nil
}

// Match reports whether s contains a match.
func (m *Matcher) Match(s string) bool {
	if m == nil {
		return false
	}
	ok, err := m.re.MatchString(s)
	return err == nil && ok
}

// Replace rewrites every non-overlapping match with fn's result.
func (m *Matcher) Replace(s string, fn func(Groups) string) string {
	if m == nil || s == "" {
		return s
	}
	out, err := m.re.ReplaceFunc(s, func(match regexp2.Match) string {
		return fn(groupsOf(&match))
	}, -1, -1)
	if err != nil {
		return s
	}
	return out
}

// ReplaceAll rewrites every match with a fixed string.
func (m *Matcher) ReplaceAll(s, repl string) string {
	return m.Replace(s, func(Groups) string { return repl })
}

// ReplaceStable applies Replace until the text stops changing, for rewrites
// whose output can form a new match with the text that follows.
func (m *Matcher) ReplaceStable(s string, fn func(Groups) string) string {
	for i := 0; i < 32; i++ {
		next := m.Replace(s, fn)
		if next == s {
			return next
		}
		s = next
	}
	return s
}

// Outside applies fn to the stretches of s that lie between matches and
// leaves the matched text itself untouched.
func (m *Matcher) Outside(s string, fn func(string) string) string {
	if m == nil {
		return fn(s)
	}
	runes := []rune(s)
	var b strings.Builder
	last := 0
	match, err := m.re.FindRunesMatch(runes)
	for err == nil && match != nil {
		b.WriteString(fn(string(runes[last:match.Index])))
		b.WriteString(string(runes[match.Index : match.Index+match.Length]))
		last = match.Index + match.Length
		match, err = m.re.FindNextMatch(match)
	}
	if err != nil {
		return s
	}
	b.WriteString(fn(string(runes[last:])))
	return b.String()
}

func groupsOf(match *regexp2.Match) Groups {
	n := match.GroupCount()
	g := Groups{values: make([]string, n), ok: make([]bool, n)}
	for i := 0; i < n; i++ {
		grp := match.GroupByNumber(i)
		if grp == nil || len(grp.Captures) == 0 {
			continue
		}
		g.values[i] = grp.String()
		g.ok[i] = true
	}
	return g
}

// Key normalizes matched text for lookups in the lexicon maps.
func Key(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// alternation turns a phrase list into "a|b|c": lower-cased, escaped, inner
// whitespace made flexible and ordered longest first so that "divided by"
// wins over "divide". It returns "" for an empty list.
func alternation(phrases []string) string {
	seen := make(map[string]bool, len(phrases))
	keys := make([]string, 0, len(phrases))
	for _, p := range phrases {
		k := Key(p)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	sortLongestFirst(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = phrasePattern(k)
	}
	return strings.Join(parts, "|")
}

func phrasePattern(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp2.Escape(w)
	}
	return strings.Join(words, `\s+`)
}

func sortLongestFirst(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(keys[i]), utf8.RuneCountInString(keys[j])
		if li != lj {
			return li > lj
		}
		return keys[i] < keys[j]
	})
}

// bounded wraps an alternation so it only matches whole words. RE2's \b is
// ASCII-only and would split "más" or "fünf".
func bounded(alt string) string {
	return `(?<!\p{L})(?:` + alt + `)(?!\p{L})`
}
