package lexicon

import (
	"strconv"

	"voicecalc/internal/domain"
)

func french() domain.LanguagePatterns {
	units := map[string]int{
		"un": 1, "une": 1, "deux": 2, "trois": 3, "quatre": 4, "cinq": 5,
		"six": 6, "sept": 7, "huit": 8, "neuf": 9,
	}
	teens := map[string]int{
		"dix": 10, "onze": 11, "douze": 12, "treize": 13, "quatorze": 14,
		"quinze": 15, "seize": 16, "dixsept": 17, "dixhuit": 18, "dixneuf": 19,
	}
	tens := map[string]int{
		"vingt": 20, "trente": 30, "quarante": 40, "cinquante": 50, "soixante": 60,
	}

	numbers := map[string]string{"zéro": "0", "zero": "0"}
	for w, v := range units {
		numbers[w] = strconv.Itoa(v)
	}
	for w, v := range teens {
		numbers[w] = strconv.Itoa(v)
	}
	for w, v := range tens {
		numbers[w] = strconv.Itoa(v)
	}
	// Hyphens are dropped before lookup: "vingt-deux" arrives as "vingtdeux".
	rest := map[string]int{}
	for w, v := range units {
		if v > 1 {
			rest[w] = v
		}
	}
	compound(numbers, tens, rest, "", " ")
	compound(numbers, tens, map[string]int{"un": 1, "une": 1, "onze": 11}, "et", " et ")
	compound(numbers, map[string]int{"soixante": 60}, teens, "", " ")

	eighty := map[string]int{"quatrevingt": 80, "quatre vingt": 80}
	numbers["quatrevingt"] = "80"
	numbers["quatrevingts"] = "80"
	numbers["quatre vingts"] = "80"
	numbers["quatre vingt"] = "80"
	compound(numbers, eighty, units, "", " ")
	compound(numbers, eighty, teens, "", " ")

	return domain.LanguagePatterns{
		Code:    "fr",
		Numbers: numbers,
		Operations: domain.Operations{
			Addition:       []string{"plus", "ajouté à", "additionné à"},
			Subtraction:    []string{"moins", "retranché de"},
			Multiplication: []string{"fois", "multiplié par", "x"},
			Division:       []string{"divisé par", "sur"},
			Percentage:     []string{"pour cent", "pourcent", "pourcentage"},
			PercentOf:      []string{"pour cent de", "pourcent de", "pour cent du", "pour cent des"},
			Power:          []string{"à la puissance", "puissance", "exposant"},
			Sqrt:           []string{"racine carrée de", "racine carrée du", "racine carrée", "racine de"},
			Parentheses: domain.Parentheses{
				Open:  []string{"ouvrir la parenthèse", "ouvre la parenthèse", "ouvrir parenthèse", "ouvre parenthèse", "parenthèse ouvrante"},
				Close: []string{"fermer la parenthèse", "ferme la parenthèse", "fermer parenthèse", "ferme parenthèse", "parenthèse fermante"},
			},
			Decimal: []string{"virgule", "point"},
		},
		SpecificPhrases: domain.SpecificPhrases{
			AddTo: []string{
				"ajouter {n} à {n}", "ajoute {n} à {n}", "additionner {n} et {n}",
				"additionne {n} et {n}", "somme de {n} et {n}", "additionner {n} {n} et {n}",
			},
			SubtractFrom: []string{
				"soustraire {n} de {n}", "soustrais {n} de {n}", "retirer {n} de {n}",
				"retire {n} de {n}", "enlever {n} de {n}", "enlève {n} de {n}",
				"soustraire {n} et {n} de {n}",
			},
			MultiplyBy: []string{"multiplier {n} par {n}", "multiplie {n} par {n}", "produit de {n} et {n}"},
			DivideBy:   []string{"diviser {n} par {n}", "divise {n} par {n}"},
		},
		FillerWords: []string{
			"combien font", "combien fait", "combien", "calcule", "calculer",
			"est égal à", "égal à", "égale", "égal", "font", "fait",
			"s'il te plaît", "s'il vous plaît", "le", "la", "les", "euh",
		},
		FractionWords: map[string]int{
			"demi": 2, "demie": 2, "moitié": 2, "tiers": 3, "quart": 4, "quarts": 4,
			"cinquième": 5, "cinquièmes": 5, "sixième": 6, "sixièmes": 6,
			"septième": 7, "septièmes": 7, "huitième": 8, "huitièmes": 8,
			"neuvième": 9, "neuvièmes": 9, "dixième": 10, "dixièmes": 10,
			"centième": 100, "centièmes": 100,
		},
		Magnitudes: map[string]float64{
			"cent": 1e2, "cents": 1e2,
			"mille":   1e3,
			"million": 1e6, "millions": 1e6,
			"milliard": 1e9, "milliards": 1e9,
			"billion": 1e12, "billions": 1e12,
		},
		OfWords: []string{"de", "du", "des"},
	}
}
