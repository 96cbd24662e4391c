package application

import (
	"strconv"
	"sync"

	"golang.org/x/text/language"
	xmessage "golang.org/x/text/message"
	"golang.org/x/text/number"

	"voicecalc/internal/lexicon"
)

// SpokenFormatter renders a result the way a speech engine should read it in
// the session language: "2500" becomes "2,500" in English and "2.500" in
// German. Displayed results stay plain digit strings. Printers are cached per
// supported language; unsupported codes share the fallback's printer.
type SpokenFormatter struct {
	mu       sync.Mutex
	printers map[string]*xmessage.Printer
}

func NewSpokenFormatter() *SpokenFormatter {
	return &SpokenFormatter{printers: make(map[string]*xmessage.Printer)}
}

func (f *SpokenFormatter) Format(value, code string) string {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	return f.printer(code).Sprint(number.Decimal(v, number.MaxFractionDigits(10)))
}

func (f *SpokenFormatter) printer(code string) *xmessage.Printer {
	f.mu.Lock()
	defer f.mu.Unlock()

	resolved := lexicon.Resolve(code)
	if p, ok := f.printers[resolved]; ok {
		return p
	}
	tag, err := language.Parse(resolved)
	if err != nil {
		tag = language.English
	}
	p := xmessage.NewPrinter(tag)
	f.printers[resolved] = p
	return p
}
