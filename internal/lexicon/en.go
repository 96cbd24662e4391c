package lexicon

import (
	"strconv"

	"voicecalc/internal/domain"
)

func english() domain.LanguagePatterns {
	units := map[string]int{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9,
	}
	tens := map[string]int{
		"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}

	numbers := map[string]string{
		"zero": "0", "nought": "0",
		"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
		"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
		"eighteen": "18", "nineteen": "19",
		"a dozen": "12", "dozen": "12",
		// Recognizers mishear short digit words.
		"won": "1", "too": "2", "ate": "8",
	}
	for w, v := range units {
		numbers[w] = strconv.Itoa(v)
	}
	for w, v := range tens {
		numbers[w] = strconv.Itoa(v)
	}
	// "twenty-five" reaches the table as "twentyfive" once hyphens are dropped.
	compound(numbers, tens, units, "")

	return domain.LanguagePatterns{
		Code:    "en",
		Numbers: numbers,
		Operations: domain.Operations{
			Addition:       []string{"plus", "added to", "add"},
			Subtraction:    []string{"minus", "subtract", "take away", "less"},
			Multiplication: []string{"times", "multiplied by", "multiply by", "multiply", "x"},
			Division:       []string{"divided by", "divide by", "divide", "over"},
			Percentage:     []string{"percent", "per cent", "percentage"},
			PercentOf:      []string{"percent of", "per cent of"},
			Power:          []string{"to the power of", "raised to the power of", "raised to", "to the power", "power of"},
			Sqrt:           []string{"square root of", "square root", "root of", "sqrt"},
			Parentheses: domain.Parentheses{
				Open:  []string{"open parenthesis", "open parentheses", "open paren", "open bracket", "left parenthesis"},
				Close: []string{"close parenthesis", "close parentheses", "close paren", "close bracket", "right parenthesis"},
			},
			Decimal: []string{"point", "dot"},
		},
		SpecificPhrases: domain.SpecificPhrases{
			AddTo: []string{
				"add {n} to {n}", "add {n} and {n}", "sum of {n} and {n}",
				"add {n} {n} and {n}", "sum of {n} {n} and {n}",
			},
			SubtractFrom: []string{
				"subtract {n} from {n}", "take {n} from {n}", "take away {n} from {n}",
				"subtract {n} and {n} from {n}",
			},
			MultiplyBy: []string{
				"multiply {n} by {n}", "product of {n} and {n}", "multiply {n} by {n} by {n}",
			},
			DivideBy: []string{"divide {n} by {n}", "quotient of {n} and {n}"},
		},
		FillerWords: []string{
			"what is", "what's", "whats", "how much is", "calculate", "compute",
			"equals", "equal to", "is equal to", "please", "the", "um", "uh", "okay", "ok",
		},
		FractionWords: map[string]int{
			"half": 2, "halves": 2, "third": 3, "thirds": 3, "quarter": 4, "quarters": 4,
			"fourth": 4, "fourths": 4, "fifth": 5, "fifths": 5, "sixth": 6, "sixths": 6,
			"seventh": 7, "sevenths": 7, "eighth": 8, "eighths": 8, "ninth": 9, "ninths": 9,
			"tenth": 10, "tenths": 10, "hundredth": 100, "hundredths": 100,
		},
		Magnitudes: map[string]float64{
			"hundred": 1e2, "hundreds": 1e2,
			"thousand": 1e3, "thousands": 1e3,
			"million": 1e6, "millions": 1e6,
			"billion": 1e9, "billions": 1e9,
			"trillion": 1e12, "trillions": 1e12,
		},
		OfWords:       []string{"of"},
		NumberJoiners: []string{"and"},
	}
}
