package lexicon

import (
	"strconv"

	"voicecalc/internal/domain"
)

func german() domain.LanguagePatterns {
	units := map[string]int{
		"ein": 1, "eins": 1, "eine": 1, "zwei": 2, "zwo": 2, "drei": 3, "vier": 4,
		"fünf": 5, "fuenf": 5, "sechs": 6, "sieben": 7, "acht": 8, "neun": 9,
	}
	tens := map[string]int{
		"zwanzig": 20, "dreißig": 30, "dreissig": 30, "vierzig": 40, "fünfzig": 50,
		"fuenfzig": 50, "sechzig": 60, "siebzig": 70, "achtzig": 80, "neunzig": 90,
	}

	numbers := map[string]string{
		"null": "0", "zehn": "10", "elf": "11", "zwölf": "12", "zwoelf": "12",
		"dreizehn": "13", "vierzehn": "14", "fünfzehn": "15", "fuenfzehn": "15",
		"sechzehn": "16", "siebzehn": "17", "achtzehn": "18", "neunzehn": "19",
	}
	for w, v := range units {
		numbers[w] = strconv.Itoa(v)
	}
	for w, v := range tens {
		numbers[w] = strconv.Itoa(v)
	}
	// German puts the unit first: "einundzwanzig".
	for uw, uv := range units {
		if uw == "eins" || uw == "eine" {
			continue
		}
		for tw, tv := range tens {
			numbers[uw+"und"+tw] = strconv.Itoa(tv + uv)
		}
	}
	for uw, uv := range units {
		if uw == "eins" || uw == "eine" {
			continue
		}
		numbers[uw+"hundert"] = strconv.Itoa(uv * 100)
		numbers[uw+"tausend"] = strconv.Itoa(uv * 1000)
	}

	return domain.LanguagePatterns{
		Code:    "de",
		Numbers: numbers,
		Operations: domain.Operations{
			Addition:       []string{"plus", "addiert mit", "dazu"},
			Subtraction:    []string{"minus", "weniger", "abzüglich"},
			Multiplication: []string{"mal", "multipliziert mit", "x"},
			Division:       []string{"geteilt durch", "dividiert durch", "durch"},
			Percentage:     []string{"prozent"},
			PercentOf:      []string{"prozent von"},
			Power:          []string{"hoch", "zur potenz", "potenz"},
			Sqrt:           []string{"quadratwurzel aus", "quadratwurzel von", "wurzel aus", "wurzel von", "quadratwurzel", "wurzel"},
			Parentheses: domain.Parentheses{
				Open:  []string{"klammer auf", "öffne klammer", "offene klammer"},
				Close: []string{"klammer zu", "schließe klammer", "geschlossene klammer"},
			},
			Decimal: []string{"komma", "punkt"},
		},
		SpecificPhrases: domain.SpecificPhrases{
			AddTo: []string{
				"addiere {n} zu {n}", "addiere {n} und {n}", "summe von {n} und {n}",
				"addiere {n} {n} und {n}",
			},
			SubtractFrom: []string{
				"ziehe {n} von {n} ab", "subtrahiere {n} von {n}", "zieh {n} von {n} ab",
				"subtrahiere {n} und {n} von {n}",
			},
			MultiplyBy: []string{"multipliziere {n} mit {n}", "produkt von {n} und {n}"},
			DivideBy:   []string{"teile {n} durch {n}", "dividiere {n} durch {n}"},
		},
		FillerWords: []string{
			"was ist", "wie viel ist", "wieviel ist", "was ergibt", "wie viel", "wieviel",
			"berechne", "rechne", "bitte", "ist gleich", "gleich", "ergibt", "ist",
			"der", "die", "das", "äh", "ähm",
		},
		FractionWords: map[string]int{
			"halb": 2, "halbe": 2, "hälfte": 2, "drittel": 3, "viertel": 4, "fünftel": 5,
			"sechstel": 6, "siebtel": 7, "achtel": 8, "neuntel": 9, "zehntel": 10,
			"hundertstel": 100,
		},
		Magnitudes: map[string]float64{
			"hundert": 1e2,
			"tausend": 1e3,
			"million": 1e6, "millionen": 1e6,
			"milliarde": 1e9, "milliarden": 1e9,
			"billion": 1e12, "billionen": 1e12,
		},
		OfWords:       []string{"von", "vom"},
		NumberJoiners: []string{"und"},
	}
}
