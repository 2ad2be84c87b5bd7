package marketdata

// catalog mapea símbolos lógicos al identificador que usa cada fuente.
// Un mismo índice tiene nombres distintos en FRED, Alpha Vantage y Yahoo;
// el resto del sistema solo conoce el símbolo lógico.
var catalog = map[string]map[string]string{
	"^GSPC": {
		"fred":          "SP500",
		"alpha_vantage": "SPY",
		"yahoo":         "^GSPC",
	},
	"NASDAQCOM": {
		"fred":  "NASDAQCOM",
		"yahoo": "^IXIC",
	},
	"^DJI": {
		"fred":          "DJIA",
		"alpha_vantage": "DIA",
		"yahoo":         "^DJI",
	},
	"^N225": {
		"fred":  "NIKKEI225",
		"yahoo": "^N225",
	},
	"BTC-USD": {
		"fred":  "CBBTCUSD",
		"yahoo": "BTC-USD",
	},
	"ETH-USD": {
		"fred":  "CBETHUSD",
		"yahoo": "ETH-USD",
	},
	"GOLD": {
		"yahoo": "GC=F",
	},
	"WTI": {
		"fred":  "DCOILWTICO",
		"yahoo": "CL=F",
	},
}

// lookupSymbol resuelve el identificador del símbolo para la fuente dada.
// Los símbolos fuera del catálogo se pasan tal cual, de modo que símbolos
// nuevos funcionan sin tocar el catálogo si la fuente ya usa ese nombre.
func lookupSymbol(symbol, source string) (string, bool) {
	sources, known := catalog[symbol]
	if !known {
		return symbol, true
	}
	id, ok := sources[source]
	return id, ok
}

// KnownSymbols devuelve los símbolos lógicos del catálogo.
func KnownSymbols() []string {
	out := make([]string, 0, len(catalog))
	for s := range catalog {
		out = append(out, s)
	}
	return out
}
