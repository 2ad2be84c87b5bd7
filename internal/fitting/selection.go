package fitting

// selection.go — criterios de selección entre candidatos de fitting.
//
// Cada criterio es una reducción O(n) pura y determinista sobre la lista de
// candidatos: misma lista, mismo ganador, empates resueltos a favor del
// primero visto (comparaciones estrictas). Ningún criterio muta candidatos.

import (
	"sort"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// Criteria identifica un criterio de selección. Los valores son los que se
// persisten en la base de resultados.
type Criteria string

const (
	// CriteriaMaxR2 elige el candidato con mayor R².
	CriteriaMaxR2 Criteria = "r_squared_max"
	// CriteriaMultiCriteria pondera calidad estadística, cercanía teórica,
	// utilidad práctica de tc y estabilidad.
	CriteriaMultiCriteria Criteria = "multi_criteria"
	// CriteriaTheoreticalBest minimiza la distancia a (β=0.33, ω=6.36)
	// ponderada inversamente por R².
	CriteriaTheoreticalBest Criteria = "theoretical_best"
	// CriteriaPracticalFocus restringe a tc ≤ 1.5 y elige el mayor R².
	CriteriaPracticalFocus Criteria = "practical_focus"
	// CriteriaConservative exige varios rangos simultáneos y elige por
	// balance de R², cercanía a β teórico y RMSE.
	CriteriaConservative Criteria = "conservative"
)

// AllCriteria enumera los criterios en el orden de presentación.
var AllCriteria = []Criteria{
	CriteriaMaxR2,
	CriteriaMultiCriteria,
	CriteriaTheoreticalBest,
	CriteriaPracticalFocus,
	CriteriaConservative,
}

// Pesos del criterio multi-criteria.
const (
	weightStatistical = 0.4
	weightTheoretical = 0.3
	weightPractical   = 0.2
	weightStability   = 0.1
)

// Umbrales de los criterios restrictivos.
const (
	theoreticalMinR2    = 0.5
	conservativeMinR2   = 0.7
	conservativeTcMax   = 2.0
	conservativeBetaMin = 0.2
	conservativeBetaMax = 0.6
	conservativeOmegaMin = 4.0
	conservativeOmegaMax = 10.0
)

// SelectionResult contiene todos los candidatos junto con el ganador y los
// scores de cada criterio, para poder compararlos después.
type SelectionResult struct {
	Candidates []domain.Candidate
	Selections map[Criteria]domain.Candidate
	Scores     map[Criteria]map[string]float64
	Default    Criteria
}

// Selected devuelve el ganador bajo el criterio dado.
func (r SelectionResult) Selected(c Criteria) (domain.Candidate, bool) {
	cand, ok := r.Selections[c]
	return cand, ok
}

// Best devuelve el ganador bajo el criterio por defecto.
func (r SelectionResult) Best() (domain.Candidate, bool) {
	return r.Selected(r.Default)
}

// Select aplica los cinco criterios sobre los candidatos plausibles dados.
// Con lista vacía devuelve un resultado sin selecciones.
func Select(candidates []domain.Candidate) SelectionResult {
	result := SelectionResult{
		Candidates: candidates,
		Selections: make(map[Criteria]domain.Candidate),
		Scores:     make(map[Criteria]map[string]float64),
		Default:    CriteriaMaxR2,
	}
	if len(candidates) == 0 {
		return result
	}

	if c, ok := selectMaxR2(candidates); ok {
		result.Selections[CriteriaMaxR2] = c
		result.Scores[CriteriaMaxR2] = map[string]float64{"r_squared": c.R2}
	}
	if c, scores, ok := selectMultiCriteria(candidates); ok {
		result.Selections[CriteriaMultiCriteria] = c
		result.Scores[CriteriaMultiCriteria] = scores
	}
	if c, scores, ok := selectTheoreticalBest(candidates); ok {
		result.Selections[CriteriaTheoreticalBest] = c
		result.Scores[CriteriaTheoreticalBest] = scores
	}
	if c, scores, ok := selectPracticalFocus(candidates); ok {
		result.Selections[CriteriaPracticalFocus] = c
		result.Scores[CriteriaPracticalFocus] = scores
	}
	if c, scores, ok := selectConservative(candidates); ok {
		result.Selections[CriteriaConservative] = c
		result.Scores[CriteriaConservative] = scores
	}
	return result
}

// selectMaxR2 es el argmax plano sobre R².
func selectMaxR2(candidates []domain.Candidate) (domain.Candidate, bool) {
	if len(candidates) == 0 {
		return domain.Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.R2 > best.R2 {
			best = c
		}
	}
	return best, true
}

// selectMultiCriteria pondera los cuatro sub-scores normalizados.
func selectMultiCriteria(candidates []domain.Candidate) (domain.Candidate, map[string]float64, bool) {
	var best domain.Candidate
	bestScore := 0.0
	var bestDetail map[string]float64
	found := false

	for _, c := range candidates {
		statistical := c.R2
		theoretical := (c.BetaProximity() + c.OmegaProximity()) / 2
		practical := tcPracticality(c.Params.Tc)
		stability := c.Stability()

		total := weightStatistical*statistical +
			weightTheoretical*theoretical +
			weightPractical*practical +
			weightStability*stability

		if total > bestScore {
			bestScore = total
			best = c
			bestDetail = map[string]float64{
				"statistical_quality":  statistical,
				"theoretical_validity": theoretical,
				"practical_utility":    practical,
				"stability":            stability,
				"total_score":          total,
			}
			found = true
		}
	}
	return best, bestDetail, found
}

// tcPracticality es la función escalón de utilidad del tc: cuanto más cerca
// de la ventana cae la predicción, más útil.
func tcPracticality(tc float64) float64 {
	switch {
	case tc <= 1.2:
		return 1.0
	case tc <= domain.PracticalTcMax:
		return 0.8
	case tc <= 2.0:
		return 0.4
	default:
		return 0.1
	}
}

// selectTheoreticalBest minimiza la distancia teórica ponderada por 1/R²
// entre los candidatos con R² > 0.5. Sin candidatos elegibles no selecciona.
func selectTheoreticalBest(candidates []domain.Candidate) (domain.Candidate, map[string]float64, bool) {
	var best domain.Candidate
	bestDistance := 0.0
	found := false

	for _, c := range candidates {
		if c.R2 <= theoreticalMinR2 {
			continue
		}
		d := c.TheoreticalDistance() / c.R2
		if !found || d < bestDistance {
			bestDistance = d
			best = c
			found = true
		}
	}
	if !found {
		return domain.Candidate{}, nil, false
	}

	scores := map[string]float64{
		"theoretical_distance": bestDistance,
		"beta_proximity":       best.BetaProximity(),
		"omega_proximity":      best.OmegaProximity(),
	}
	return best, scores, true
}

// selectPracticalFocus restringe a tc ≤ 1.5 y elige el mayor R².
// Si ningún candidato es práctico, cae al de menor tc de toda la lista.
func selectPracticalFocus(candidates []domain.Candidate) (domain.Candidate, map[string]float64, bool) {
	if len(candidates) == 0 {
		return domain.Candidate{}, nil, false
	}

	practical := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Params.Tc <= domain.PracticalTcMax {
			practical = append(practical, c)
		}
	}
	if len(practical) == 0 {
		minTc := candidates[0]
		for _, c := range candidates[1:] {
			if c.Params.Tc < minTc.Params.Tc {
				minTc = c
			}
		}
		practical = []domain.Candidate{minTc}
	}

	best, _ := selectMaxR2(practical)

	practicality := 0.5
	if best.Params.Tc <= domain.PracticalTcMax {
		practicality = 1.0
	}
	scores := map[string]float64{
		"tc_practicality":            practicality,
		"r_squared":                  best.R2,
		"practical_candidates_count": float64(len(practical)),
	}
	return best, scores, true
}

// selectConservative restringe a candidatos que cumplen varios rangos a la
// vez; si no hay ninguno, usa los top-3 por R². El ganador es el de mejor
// balance 0.5·R² + 0.3·cercanía-β + 0.2·estabilidad.
func selectConservative(candidates []domain.Candidate) (domain.Candidate, map[string]float64, bool) {
	if len(candidates) == 0 {
		return domain.Candidate{}, nil, false
	}

	pool := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.R2 > conservativeMinR2 &&
			c.Params.Tc <= conservativeTcMax &&
			c.Params.Beta >= conservativeBetaMin && c.Params.Beta <= conservativeBetaMax &&
			c.Params.Omega >= conservativeOmegaMin && c.Params.Omega <= conservativeOmegaMax {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		ranked := make([]domain.Candidate, len(candidates))
		copy(ranked, candidates)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].R2 > ranked[j].R2 })
		if len(ranked) > 3 {
			ranked = ranked[:3]
		}
		pool = ranked
	}

	var best domain.Candidate
	bestBalance := 0.0
	found := false
	for _, c := range pool {
		balance := 0.5*c.R2 + 0.3*c.BetaProximity() + 0.2*c.Stability()
		if balance > bestBalance {
			bestBalance = balance
			best = c
			found = true
		}
	}
	if !found {
		return domain.Candidate{}, nil, false
	}

	scores := map[string]float64{
		"balance_score":                bestBalance,
		"conservative_candidates_count": float64(len(pool)),
		"reliability_factor":           best.R2 * best.Stability(),
	}
	return best, scores, true
}
