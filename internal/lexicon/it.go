package lexicon

import (
	"strconv"
	"strings"

	"voicecalc/internal/domain"
)

func italian() domain.LanguagePatterns {
	units := map[string]int{
		"uno": 1, "due": 2, "tre": 3, "quattro": 4, "cinque": 5,
		"sei": 6, "sette": 7, "otto": 8, "nove": 9,
	}
	tens := map[string]int{
		"venti": 20, "trenta": 30, "quaranta": 40, "cinquanta": 50,
		"sessanta": 60, "settanta": 70, "ottanta": 80, "novanta": 90,
	}

	numbers := map[string]string{
		"zero": "0", "un": "1", "una": "1", "dieci": "10", "undici": "11",
		"dodici": "12", "tredici": "13", "quattordici": "14", "quindici": "15",
		"sedici": "16", "diciassette": "17", "diciotto": "18", "diciannove": "19",
	}
	for w, v := range units {
		numbers[w] = strconv.Itoa(v)
	}
	for tw, tv := range tens {
		numbers[tw] = strconv.Itoa(tv)
		for uw, uv := range units {
			// "venti" + "uno" elides to "ventuno".
			stem := tw
			if strings.HasPrefix(uw, "u") || strings.HasPrefix(uw, "o") {
				stem = tw[:len(tw)-1]
			}
			numbers[stem+uw] = strconv.Itoa(tv + uv)
		}
		numbers[tw+"tré"] = strconv.Itoa(tv + 3)
	}
	for uw, uv := range units {
		if uv > 1 {
			numbers[uw+"cento"] = strconv.Itoa(uv * 100)
			numbers[uw+"mila"] = strconv.Itoa(uv * 1000)
		}
	}

	return domain.LanguagePatterns{
		Code:    "it",
		Numbers: numbers,
		Operations: domain.Operations{
			Addition:       []string{"più", "piu", "sommato a", "aggiunto a"},
			Subtraction:    []string{"meno", "sottratto a"},
			Multiplication: []string{"per", "moltiplicato per", "volte", "x"},
			Division:       []string{"diviso per", "diviso", "fratto"},
			Percentage:     []string{"per cento", "percento", "percentuale"},
			PercentOf:      []string{"per cento di", "percento di", "per cento del", "per cento della"},
			Power:          []string{"elevato alla potenza", "elevato alla", "elevato a", "alla potenza"},
			Sqrt:           []string{"radice quadrata di", "radice quadrata del", "radice quadrata", "radice di"},
			Parentheses: domain.Parentheses{
				Open:  []string{"apri parentesi", "aperta parentesi", "parentesi aperta"},
				Close: []string{"chiudi parentesi", "chiusa parentesi", "parentesi chiusa"},
			},
			Decimal: []string{"virgola", "punto"},
		},
		SpecificPhrases: domain.SpecificPhrases{
			AddTo: []string{
				"somma {n} a {n}", "aggiungi {n} a {n}", "somma {n} e {n}",
				"sommare {n} e {n}", "somma {n} {n} e {n}",
			},
			SubtractFrom: []string{
				"sottrai {n} da {n}", "sottrarre {n} da {n}", "togli {n} da {n}",
				"sottrai {n} e {n} da {n}",
			},
			MultiplyBy: []string{"moltiplica {n} per {n}", "moltiplicare {n} per {n}"},
			DivideBy:   []string{"dividi {n} per {n}", "dividere {n} per {n}"},
		},
		FillerWords: []string{
			"quanto fa", "quanto è", "quanto fanno", "quanto", "calcola", "calcolare",
			"è uguale a", "uguale a", "uguale", "fa", "per favore", "il", "lo", "la", "ehm",
		},
		FractionWords: map[string]int{
			"mezzo": 2, "mezza": 2, "metà": 2, "terzo": 3, "terzi": 3, "quarto": 4, "quarti": 4,
			"quinto": 5, "quinti": 5, "sesto": 6, "sesti": 6, "settimo": 7, "settimi": 7,
			"ottavo": 8, "ottavi": 8, "nono": 9, "noni": 9, "decimo": 10, "decimi": 10,
			"centesimo": 100, "centesimi": 100,
		},
		Magnitudes: map[string]float64{
			"cento": 1e2,
			"mille": 1e3, "mila": 1e3,
			"milione": 1e6, "milioni": 1e6,
			"miliardo": 1e9, "miliardi": 1e9,
			"bilione": 1e12, "bilioni": 1e12,
		},
		OfWords:       []string{"di", "del", "della"},
		NumberJoiners: []string{"e"},
	}
}
