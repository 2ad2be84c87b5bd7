package fitting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

func testBounds() domain.Bounds {
	return domain.BoundsForLogPrices([]float64{4.0, 5.0})
}

func TestEvaluate_HighQualityFit(t *testing.T) {
	c := domain.Candidate{
		Params:    domain.Parameters{Tc: 1.25, Beta: 0.33, Omega: 6.36, Phi: 0, A: 4.5, B: -0.5, C: 0.1},
		R2:        0.92,
		RMSE:      0.04,
		Converged: true,
	}

	a := Evaluate(c, testBounds())
	assert.Equal(t, domain.QualityHighQuality, a.Quality)
	assert.True(t, a.Usable)
	assert.Empty(t, a.Issues)
	assert.Greater(t, a.Confidence, 0.9)
}

func TestEvaluate_TcAtLowerBoundIsCriticalProximity(t *testing.T) {
	b := testBounds()
	c := domain.Candidate{
		Params:    domain.Parameters{Tc: b.Lower[0], Beta: 0.33, Omega: 6.36, Phi: 0, A: 4.5, B: -0.5, C: 0.1},
		R2:        0.90,
		RMSE:      0.04,
		Converged: true,
	}

	a := Evaluate(c, b)
	// tc en el borde inferior: el crash sería "ya mismo" — diagnóstico
	// interesante pero inservible como predicción.
	assert.Equal(t, domain.QualityCriticalProximity, a.Quality)
	assert.False(t, a.Usable)
	assert.NotEmpty(t, a.Issues)
}

func TestEvaluate_TcAtUpperBoundIsBoundaryStuck(t *testing.T) {
	b := testBounds()
	c := domain.Candidate{
		Params:    domain.Parameters{Tc: b.Upper[0], Beta: 0.33, Omega: 6.36, Phi: 0, A: 4.5, B: -0.5, C: 0.1},
		R2:        0.90,
		RMSE:      0.04,
		Converged: true,
	}

	a := Evaluate(c, b)
	assert.Equal(t, domain.QualityBoundaryStuck, a.Quality)
	assert.False(t, a.Usable)
}

func TestEvaluate_OverfitSignature(t *testing.T) {
	c := domain.Candidate{
		Params:    domain.Parameters{Tc: 1.01, Beta: 0.95, Omega: 6.36, Phi: 0, A: 4.5, B: -0.5, C: 0.1},
		R2:        0.98,
		RMSE:      0.02,
		Converged: true,
	}

	a := Evaluate(c, testBounds())
	// R² casi perfecto con β no físico y tc pegado a la ventana
	assert.Equal(t, domain.QualityOverfitting, a.Quality)
	assert.False(t, a.Usable)
	assert.Less(t, a.Confidence, 0.3)
}

func TestEvaluate_LowR2NeverUsable(t *testing.T) {
	c := domain.Candidate{
		Params:    domain.Parameters{Tc: 1.2, Beta: 0.33, Omega: 6.36, Phi: 0, A: 4.5, B: -0.5, C: 0.1},
		R2:        0.30,
		RMSE:      0.04,
		Converged: true,
	}

	a := Evaluate(c, testBounds())
	assert.False(t, a.Usable)
}

func TestEvaluate_Pure(t *testing.T) {
	c := domain.Candidate{
		Params:    domain.Parameters{Tc: 1.25, Beta: 0.33, Omega: 6.36, Phi: 0, A: 4.5, B: -0.5, C: 0.1},
		R2:        0.92,
		RMSE:      0.04,
		Converged: true,
	}

	first := Evaluate(c, testBounds())
	second := Evaluate(c, testBounds())
	assert.Equal(t, first, second)
}

func TestEvaluate_ConfidenceWithinUnitInterval(t *testing.T) {
	cases := []domain.Candidate{
		cand(1.25, 0.33, 6.36, 0.92, 0.04),
		cand(1.01, 0.95, 6.36, 0.98, 0.02),
		cand(2.8, 0.08, 18.0, 0.15, 0.35),
	}
	for _, c := range cases {
		a := Evaluate(c, testBounds())
		assert.GreaterOrEqual(t, a.Confidence, 0.0)
		assert.LessOrEqual(t, a.Confidence, 1.0)
	}
}

func TestEvaluate_UnconvergedFitIsPoorConvergence(t *testing.T) {
	c := domain.Candidate{
		Params:    domain.Parameters{Tc: 1.2, Beta: 0.33, Omega: 6.36, Phi: 0, A: 4.5, B: -0.5, C: 0.1},
		R2:        0.65,
		RMSE:      0.12,
		Converged: false,
	}

	a := Evaluate(c, testBounds())
	assert.Equal(t, domain.QualityPoorConvergence, a.Quality)
	assert.Less(t, a.Confidence, 0.3)
	assert.Contains(t, a.Issues, "optimizer stopped before meeting its convergence criterion")
}

func TestEvaluate_ConvergenceCheckOnlyFiresWhenUnconverged(t *testing.T) {
	c := domain.Candidate{
		Params:    domain.Parameters{Tc: 1.2, Beta: 0.33, Omega: 6.36, Phi: 0, A: 4.5, B: -0.5, C: 0.1},
		R2:        0.65,
		RMSE:      0.12,
		Converged: true,
	}

	// Mismo candidato con parada limpia: sin issue de convergencia y un
	// escalón entero de etiqueta por encima.
	a := Evaluate(c, testBounds())
	assert.Equal(t, domain.QualityAcceptable, a.Quality)
	for _, issue := range a.Issues {
		assert.NotContains(t, issue, "convergence")
	}
}
