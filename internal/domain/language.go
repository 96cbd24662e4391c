package domain

// LanguagePatterns is the lexicon of one supported language.
type LanguagePatterns struct {
	Code            string
	Numbers         map[string]string
	Operations      Operations
	SpecificPhrases SpecificPhrases
	FillerWords     []string
	FractionWords   map[string]int

	// Magnitudes maps scale words to their multiplier ("million" -> 1e6).
	Magnitudes map[string]float64
	// OfWords connect a fraction or percentage to its operand ("of", "de").
	OfWords []string
	// NumberJoiners may sit between the parts of a spelled number ("and", "y").
	NumberJoiners []string
}

type Operations struct {
	Addition       []string
	Subtraction    []string
	Multiplication []string
	Division       []string
	Percentage     []string
	PercentOf      []string
	Power          []string
	Sqrt           []string
	Parentheses    Parentheses
	Decimal        []string
}

type Parentheses struct {
	Open  []string
	Close []string
}

// SpecificPhrases hold templates where {n} marks a numeric operand.
type SpecificPhrases struct {
	AddTo        []string
	SubtractFrom []string
	MultiplyBy   []string
	DivideBy     []string
}

// NumberPlaceholder is the operand marker used in SpecificPhrases templates.
const NumberPlaceholder = "{n}"
