package fitting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

func cand(tc, beta, omega, r2, rmse float64) domain.Candidate {
	return domain.Candidate{
		Params:    domain.Parameters{Tc: tc, Beta: beta, Omega: omega, Phi: 0, A: 5, B: -1, C: 0.1},
		R2:        r2,
		RMSE:      rmse,
		Converged: true,
	}
}

func TestSelect_Empty(t *testing.T) {
	result := Select(nil)
	assert.Empty(t, result.Selections)

	_, ok := result.Best()
	assert.False(t, ok)
}

func TestSelect_Deterministic(t *testing.T) {
	candidates := []domain.Candidate{
		cand(1.2, 0.33, 6.36, 0.92, 0.04),
		cand(1.8, 0.50, 9.00, 0.95, 0.06),
		cand(1.1, 0.25, 5.00, 0.85, 0.05),
	}

	first := Select(candidates)
	second := Select(candidates)
	for _, criteria := range AllCriteria {
		a, aok := first.Selected(criteria)
		b, bok := second.Selected(criteria)
		assert.Equal(t, aok, bok, "%s", criteria)
		assert.Equal(t, a, b, "%s", criteria)
	}
}

func TestSelectMaxR2_PicksHighest(t *testing.T) {
	candidates := []domain.Candidate{
		cand(1.2, 0.33, 6.36, 0.80, 0.05),
		cand(1.5, 0.40, 7.00, 0.95, 0.04),
		cand(1.1, 0.30, 6.00, 0.90, 0.03),
	}

	best, ok := selectMaxR2(candidates)
	require.True(t, ok)
	assert.InDelta(t, 0.95, best.R2, 1e-12)
}

func TestSelectMaxR2_TieKeepsFirstSeen(t *testing.T) {
	a := cand(1.2, 0.33, 6.36, 0.90, 0.05)
	b := cand(1.5, 0.40, 7.00, 0.90, 0.04)

	best, ok := selectMaxR2([]domain.Candidate{a, b})
	require.True(t, ok)
	assert.Equal(t, a, best)
}

func TestSelectTheoreticalBest_RequiresMinimumR2(t *testing.T) {
	// Ninguno supera R² > 0.5 → sin selección
	_, _, ok := selectTheoreticalBest([]domain.Candidate{
		cand(1.2, 0.33, 6.36, 0.40, 0.05),
		cand(1.3, 0.35, 6.50, 0.50, 0.05),
	})
	assert.False(t, ok)
}

func TestSelectTheoreticalBest_PrefersSornetteZone(t *testing.T) {
	theoretical := cand(1.3, 0.33, 6.36, 0.80, 0.05)
	farOff := cand(1.3, 0.80, 15.0, 0.92, 0.05)

	best, scores, ok := selectTheoreticalBest([]domain.Candidate{farOff, theoretical})
	require.True(t, ok)
	// El candidato en la zona teórica gana aunque tenga menos R².
	assert.Equal(t, theoretical, best)
	assert.InDelta(t, 0.0, scores["theoretical_distance"], 1e-9)
}

func TestSelectPracticalFocus_RestrictsToNearTc(t *testing.T) {
	near := cand(1.3, 0.40, 7.0, 0.80, 0.05)
	far := cand(2.5, 0.33, 6.36, 0.95, 0.04)

	best, scores, ok := selectPracticalFocus([]domain.Candidate{far, near})
	require.True(t, ok)
	assert.Equal(t, near, best)
	assert.InDelta(t, 1.0, scores["tc_practicality"], 1e-12)
}

func TestSelectPracticalFocus_FallsBackToMinTc(t *testing.T) {
	a := cand(2.5, 0.40, 7.0, 0.80, 0.05)
	b := cand(1.8, 0.33, 6.36, 0.70, 0.04)

	best, scores, ok := selectPracticalFocus([]domain.Candidate{a, b})
	require.True(t, ok)
	// Nadie con tc ≤ 1.5: gana el de menor tc de toda la lista.
	assert.Equal(t, b, best)
	assert.InDelta(t, 0.5, scores["tc_practicality"], 1e-12)
}

func TestSelectConservative_AppliesAllRanges(t *testing.T) {
	qualifying := cand(1.4, 0.35, 6.5, 0.85, 0.03)
	highR2ButWild := cand(2.8, 0.90, 18.0, 0.97, 0.02)

	best, scores, ok := selectConservative([]domain.Candidate{highR2ButWild, qualifying})
	require.True(t, ok)
	assert.Equal(t, qualifying, best)
	assert.InDelta(t, 1.0, scores["conservative_candidates_count"], 1e-12)
}

func TestSelectConservative_FallbackTop3(t *testing.T) {
	// Ninguno cumple los rangos conservadores → top-3 por R²
	candidates := []domain.Candidate{
		cand(2.8, 0.90, 18.0, 0.60, 0.08),
		cand(2.9, 0.85, 17.0, 0.65, 0.07),
		cand(2.7, 0.95, 19.0, 0.55, 0.09),
		cand(2.6, 0.88, 16.0, 0.40, 0.10),
	}

	best, scores, ok := selectConservative(candidates)
	require.True(t, ok)
	assert.InDelta(t, 3.0, scores["conservative_candidates_count"], 1e-12)
	// El peor R² queda fuera del pool
	assert.NotEqual(t, 0.40, best.R2)
}

func TestSelectMultiCriteria_WeighsPracticality(t *testing.T) {
	// Mismos estadísticos y parámetros teóricos, distinto tc: gana el práctico.
	near := cand(1.15, 0.33, 6.36, 0.90, 0.04)
	far := cand(2.5, 0.33, 6.36, 0.90, 0.04)

	best, scores, ok := selectMultiCriteria([]domain.Candidate{far, near})
	require.True(t, ok)
	assert.Equal(t, near, best)
	assert.InDelta(t, 1.0, scores["practical_utility"], 1e-12)
}

func TestTcPracticality_StepFunction(t *testing.T) {
	assert.Equal(t, 1.0, tcPracticality(1.1))
	assert.Equal(t, 1.0, tcPracticality(1.2))
	assert.Equal(t, 0.8, tcPracticality(1.4))
	assert.Equal(t, 0.4, tcPracticality(1.8))
	assert.Equal(t, 0.1, tcPracticality(2.5))
}

func TestSelect_DefaultIsMaxR2(t *testing.T) {
	candidates := []domain.Candidate{
		cand(1.2, 0.33, 6.36, 0.80, 0.05),
		cand(1.5, 0.40, 7.00, 0.95, 0.04),
	}

	result := Select(candidates)
	assert.Equal(t, CriteriaMaxR2, result.Default)

	best, ok := result.Best()
	require.True(t, ok)
	assert.InDelta(t, 0.95, best.R2, 1e-12)
}
