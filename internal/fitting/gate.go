package fitting

import "github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"

// Límites físicos generosos: recortan candidatos absurdos sin sesgar la
// selección posterior hacia los valores teóricos.
const (
	gateBetaMin  = 0.05
	gateBetaMax  = 1.0
	gateOmegaMin = 1.0
	gateOmegaMax = 20.0
)

// Plausible devuelve true si el candidato pasa los gates de plausibilidad
// física: tc más allá de la ventana de datos, β y ω dentro de límites
// generosos, y R² por encima del suelo dado.
func Plausible(c domain.Candidate, r2Floor float64) bool {
	p := c.Params
	return p.Tc > 1.0 &&
		p.Beta >= gateBetaMin && p.Beta <= gateBetaMax &&
		p.Omega >= gateOmegaMin && p.Omega <= gateOmegaMax &&
		c.R2 > r2Floor
}

// FilterPlausible devuelve los candidatos que pasan el gate. Idempotente:
// aplicarlo dos veces da lo mismo que una.
func FilterPlausible(candidates []domain.Candidate, r2Floor float64) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if Plausible(c, r2Floor) {
			out = append(out, c)
		}
	}
	return out
}
