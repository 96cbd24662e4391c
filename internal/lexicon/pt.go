package lexicon

import "voicecalc/internal/domain"

func portuguese() domain.LanguagePatterns {
	numbers := map[string]string{
		"zero": "0", "um": "1", "uma": "1", "dois": "2", "duas": "2", "três": "3",
		"tres": "3", "quatro": "4", "cinco": "5", "seis": "6", "sete": "7",
		"oito": "8", "nove": "9", "dez": "10", "onze": "11", "doze": "12",
		"treze": "13", "catorze": "14", "quatorze": "14", "quinze": "15",
		"dezesseis": "16", "dezasseis": "16", "dezessete": "17", "dezassete": "17",
		"dezoito": "18", "dezenove": "19", "dezanove": "19", "vinte": "20",
		"trinta": "30", "quarenta": "40", "cinquenta": "50", "sessenta": "60",
		"setenta": "70", "oitenta": "80", "noventa": "90",
		"duzentos": "200", "duzentas": "200", "trezentos": "300", "trezentas": "300",
		"quatrocentos": "400", "quatrocentas": "400", "quinhentos": "500",
		"quinhentas": "500", "seiscentos": "600", "seiscentas": "600",
		"setecentos": "700", "setecentas": "700", "oitocentos": "800",
		"oitocentas": "800", "novecentos": "900", "novecentas": "900",
	}
	compound(numbers,
		map[string]int{"vinte": 20, "trinta": 30, "quarenta": 40, "cinquenta": 50, "sessenta": 60, "setenta": 70, "oitenta": 80, "noventa": 90},
		map[string]int{"um": 1, "uma": 1, "dois": 2, "duas": 2, "três": 3, "tres": 3, "quatro": 4, "cinco": 5, "seis": 6, "sete": 7, "oito": 8, "nove": 9},
		" e ")

	return domain.LanguagePatterns{
		Code:    "pt",
		Numbers: numbers,
		Operations: domain.Operations{
			Addition:       []string{"mais", "somado a", "somar", "soma"},
			Subtraction:    []string{"menos", "subtraído de", "subtrair"},
			Multiplication: []string{"vezes", "multiplicado por", "x"},
			Division:       []string{"dividido por", "divide por", "dividido"},
			Percentage:     []string{"por cento", "porcento", "porcentagem", "percentagem"},
			PercentOf:      []string{"por cento de", "porcento de", "por cento do", "por cento da"},
			Power:          []string{"elevado à potência", "elevado a potência", "elevado ao", "elevado à", "elevado a", "à potência de"},
			Sqrt:           []string{"raiz quadrada de", "raiz quadrada do", "raiz quadrada", "raiz de"},
			Parentheses: domain.Parentheses{
				Open:  []string{"abre parênteses", "abrir parênteses", "abre parenteses", "abrir parenteses"},
				Close: []string{"fecha parênteses", "fechar parênteses", "fecha parenteses", "fechar parenteses"},
			},
			Decimal: []string{"vírgula", "virgula", "ponto"},
		},
		SpecificPhrases: domain.SpecificPhrases{
			AddTo: []string{
				"somar {n} a {n}", "some {n} a {n}", "somar {n} e {n}", "some {n} e {n}",
				"soma de {n} e {n}", "adicionar {n} a {n}", "adicione {n} a {n}",
				"somar {n} {n} e {n}",
			},
			SubtractFrom: []string{
				"subtrair {n} de {n}", "subtraia {n} de {n}", "tirar {n} de {n}",
				"tire {n} de {n}", "subtrair {n} e {n} de {n}",
			},
			MultiplyBy: []string{"multiplicar {n} por {n}", "multiplique {n} por {n}", "multiplica {n} por {n}"},
			DivideBy:   []string{"dividir {n} por {n}", "divida {n} por {n}", "divide {n} por {n}"},
		},
		FillerWords: []string{
			"quanto é", "quanto dá", "quanto são", "quanto", "calcule", "calcular", "calcula",
			"é igual a", "igual a", "igual", "dá", "por favor", "o", "os", "as",
		},
		FractionWords: map[string]int{
			"meio": 2, "meia": 2, "metade": 2, "terço": 3, "terços": 3, "quarto": 4, "quartos": 4,
			"quinto": 5, "quintos": 5, "sexto": 6, "sextos": 6, "sétimo": 7, "sétimos": 7,
			"oitavo": 8, "oitavos": 8, "nono": 9, "nonos": 9, "décimo": 10, "décimos": 10,
			"centésimo": 100, "centésimos": 100,
		},
		Magnitudes: map[string]float64{
			"cem": 1e2, "cento": 1e2,
			"mil":    1e3,
			"milhão": 1e6, "milhao": 1e6, "milhões": 1e6, "milhoes": 1e6,
			"bilhão": 1e9, "bilhao": 1e9, "bilhões": 1e9, "bilhoes": 1e9,
			"trilhão": 1e12, "trilhao": 1e12, "trilhões": 1e12, "trilhoes": 1e12,
		},
		OfWords:       []string{"de", "do", "da"},
		NumberJoiners: []string{"e"},
	}
}
