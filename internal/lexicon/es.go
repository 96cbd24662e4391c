package lexicon

import "voicecalc/internal/domain"

func spanish() domain.LanguagePatterns {
	numbers := map[string]string{
		"cero": "0", "un": "1", "uno": "1", "una": "1", "dos": "2", "tres": "3",
		"cuatro": "4", "cinco": "5", "seis": "6", "siete": "7", "ocho": "8",
		"nueve": "9", "diez": "10", "once": "11", "doce": "12", "trece": "13",
		"catorce": "14", "quince": "15", "dieciséis": "16", "dieciseis": "16",
		"diecisiete": "17", "dieciocho": "18", "diecinueve": "19", "veinte": "20",
		"veintiuno": "21", "veintiún": "21", "veintiuna": "21", "veintidós": "22",
		"veintidos": "22", "veintitrés": "23", "veintitres": "23", "veinticuatro": "24",
		"veinticinco": "25", "veintiséis": "26", "veintiseis": "26", "veintisiete": "27",
		"veintiocho": "28", "veintinueve": "29", "treinta": "30", "cuarenta": "40",
		"cincuenta": "50", "sesenta": "60", "setenta": "70", "ochenta": "80",
		"noventa": "90", "doscientos": "200", "doscientas": "200",
		"trescientos": "300", "trescientas": "300", "cuatrocientos": "400",
		"cuatrocientas": "400", "quinientos": "500", "quinientas": "500",
		"seiscientos": "600", "seiscientas": "600", "setecientos": "700",
		"setecientas": "700", "ochocientos": "800", "ochocientas": "800",
		"novecientos": "900", "novecientas": "900",
	}
	// "treinta y dos" is a single number; "cinco y tres" stays an addition.
	compound(numbers,
		map[string]int{"treinta": 30, "cuarenta": 40, "cincuenta": 50, "sesenta": 60, "setenta": 70, "ochenta": 80, "noventa": 90},
		map[string]int{"un": 1, "uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5, "seis": 6, "siete": 7, "ocho": 8, "nueve": 9},
		" y ")

	return domain.LanguagePatterns{
		Code:    "es",
		Numbers: numbers,
		Operations: domain.Operations{
			Addition:       []string{"más", "mas", "sumado a", "sumar", "suma", "y"},
			Subtraction:    []string{"menos", "restado a", "restar", "resta"},
			Multiplication: []string{"por", "multiplicado por", "veces", "x"},
			Division:       []string{"dividido por", "dividido entre", "dividido", "entre"},
			Percentage:     []string{"por ciento", "porciento", "porcentaje"},
			PercentOf:      []string{"por ciento de", "porciento de", "por ciento del"},
			Power:          []string{"elevado a la potencia", "elevado a la", "elevado al", "elevado a", "a la potencia"},
			Sqrt:           []string{"raíz cuadrada de", "raiz cuadrada de", "raíz cuadrada", "raiz cuadrada", "raíz de", "raiz de"},
			Parentheses: domain.Parentheses{
				Open:  []string{"abre paréntesis", "abrir paréntesis", "abre parentesis", "abrir parentesis"},
				Close: []string{"cierra paréntesis", "cerrar paréntesis", "cierra parentesis", "cerrar parentesis"},
			},
			Decimal: []string{"punto", "coma"},
		},
		SpecificPhrases: domain.SpecificPhrases{
			AddTo: []string{
				"sumar {n} a {n}", "suma {n} a {n}", "sumar {n} y {n}", "suma {n} y {n}",
				"sumar {n} {n} y {n}", "suma {n} {n} y {n}",
			},
			SubtractFrom: []string{
				"restar {n} de {n}", "resta {n} de {n}", "restar {n} a {n}", "resta {n} a {n}",
				"quitar {n} a {n}", "quita {n} a {n}", "restar {n} y {n} de {n}",
			},
			MultiplyBy: []string{"multiplicar {n} por {n}", "multiplica {n} por {n}"},
			DivideBy: []string{
				"dividir {n} entre {n}", "divide {n} entre {n}",
				"dividir {n} por {n}", "divide {n} por {n}",
			},
		},
		FillerWords: []string{
			"cuánto es", "cuanto es", "cuánto son", "cuanto son", "cuánto", "cuanto",
			"calcula", "calcular", "es igual a", "igual a", "igual", "es", "son",
			"por favor", "el", "la", "los", "las", "eh",
		},
		FractionWords: map[string]int{
			"medio": 2, "medios": 2, "tercio": 3, "tercios": 3, "cuarto": 4, "cuartos": 4,
			"quinto": 5, "quintos": 5, "sexto": 6, "sextos": 6, "séptimo": 7, "séptimos": 7,
			"octavo": 8, "octavos": 8, "noveno": 9, "novenos": 9, "décimo": 10, "décimos": 10,
		},
		Magnitudes: map[string]float64{
			"cien": 1e2, "ciento": 1e2, "cientos": 1e2,
			"mil":    1e3,
			"millón": 1e6, "millon": 1e6, "millones": 1e6,
			"millardo": 1e9, "millardos": 1e9,
			"billón": 1e12, "billon": 1e12, "billones": 1e12,
		},
		OfWords: []string{"de", "del"},
	}
}
