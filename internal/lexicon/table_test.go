package lexicon_test

import (
	"strings"
	"testing"

	"voicecalc/internal/domain"
	"voicecalc/internal/lexicon"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "en"},
		{"es", "es"},
		{"es-MX", "es"},
		{"pt_BR", "pt"},
		{"FR", "fr"},
		{"de-AT", "de"},
		{"it-IT", "it"},
		{"ja", "en"},
		{"", "en"},
		{"not a language", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := lexicon.Resolve(tt.code); got != tt.want {
				t.Errorf("Resolve(%q): got %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestLookup_FallbackIsTotal(t *testing.T) {
	for _, code := range []string{"", "xx", "zh-Hant", "??", "en"} {
		p := lexicon.Lookup(code)
		if p.Code != lexicon.Default {
			t.Errorf("Lookup(%q).Code: got %q, want %q", code, p.Code, lexicon.Default)
		}
		if len(p.Numbers) == 0 {
			t.Errorf("Lookup(%q): empty number table", code)
		}
	}
}

func TestSupported(t *testing.T) {
	got := strings.Join(lexicon.Supported(), ",")
	if got != "de,en,es,fr,it,pt" {
		t.Errorf("Supported: got %s", got)
	}
}

func TestTables_WellFormed(t *testing.T) {
	for _, code := range lexicon.Supported() {
		p := lexicon.Lookup(code)
		t.Run(code, func(t *testing.T) {
			if p.Code != code {
				t.Errorf("Code: got %q, want %q", p.Code, code)
			}
			for word, digits := range p.Numbers {
				if word != strings.ToLower(word) {
					t.Errorf("number word %q is not lower case", word)
				}
				if strings.Trim(digits, "0123456789") != "" {
					t.Errorf("number %q maps to non-digits %q", word, digits)
				}
			}
			if len(p.Operations.Addition) == 0 || len(p.Operations.Subtraction) == 0 ||
				len(p.Operations.Multiplication) == 0 || len(p.Operations.Division) == 0 {
				t.Error("missing basic operator words")
			}
			for _, list := range [][]string{
				p.SpecificPhrases.AddTo, p.SpecificPhrases.SubtractFrom,
				p.SpecificPhrases.MultiplyBy, p.SpecificPhrases.DivideBy,
			} {
				for _, tpl := range list {
					n := strings.Count(tpl, domain.NumberPlaceholder)
					if n < 2 || n > 3 {
						t.Errorf("template %q has %d placeholders", tpl, n)
					}
				}
			}
			for word, d := range p.FractionWords {
				if d < 2 {
					t.Errorf("fraction word %q has denominator %d", word, d)
				}
			}
		})
	}
}

func TestCompoundNumbers(t *testing.T) {
	tests := []struct {
		code string
		word string
		want string
	}{
		{"en", "twentyfive", "25"},
		{"en", "ninetynine", "99"},
		{"es", "treinta y dos", "32"},
		{"es", "veintitrés", "23"},
		{"fr", "vingtdeux", "22"},
		{"fr", "vingt et un", "21"},
		{"fr", "soixantedixsept", "77"},
		{"fr", "quatrevingtdix", "90"},
		{"de", "einundzwanzig", "21"},
		{"de", "zweihundert", "200"},
		{"it", "ventuno", "21"},
		{"it", "trentotto", "38"},
		{"it", "ventitré", "23"},
		{"pt", "vinte e um", "21"},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.word, func(t *testing.T) {
			if got := lexicon.Lookup(tt.code).Numbers[tt.word]; got != tt.want {
				t.Errorf("Numbers[%q]: got %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}
