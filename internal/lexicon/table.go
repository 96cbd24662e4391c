// Package lexicon holds the spoken-arithmetic vocabulary of every supported
// language. The tables are compiled into the binary; nothing is loaded at
// runtime.
package lexicon

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"voicecalc/internal/domain"
)

// Default is the language used for any code that is not supported.
const Default = "en"

var table = map[string]domain.LanguagePatterns{
	"en": english(),
	"es": spanish(),
	"fr": french(),
	"de": german(),
	"it": italian(),
	"pt": portuguese(),
}

// Lookup returns the patterns for code, falling back to Default. The returned
// maps and slices are shared and must not be modified.
func Lookup(code string) domain.LanguagePatterns {
	return table[Resolve(code)]
}

// Resolve maps a BCP 47 tag ("es-MX", "pt_BR", "EN") to the supported base
// language it selects.
func Resolve(code string) string {
	if IsSupported(code) {
		return base(code)
	}
	return Default
}

// IsSupported reports whether code selects its own table rather than the
// fallback.
func IsSupported(code string) bool {
	_, ok := table[base(code)]
	return ok
}

func base(code string) string {
	code = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "_", "-")))
	if _, ok := table[code]; ok {
		return code
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	b, _ := tag.Base()
	return b.String()
}

// Supported lists the language codes with their own table, sorted.
func Supported() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// compound adds every "<tens><joiner><unit>" spelling to numbers.
func compound(numbers map[string]string, tens map[string]int, units map[string]int, joiners ...string) {
	for tw, tv := range tens {
		for uw, uv := range units {
			for _, j := range joiners {
				numbers[tw+j+uw] = strconv.Itoa(tv + uv)
			}
		}
	}
}
