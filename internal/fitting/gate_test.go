package fitting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

func TestPlausible_AcceptsPhysicalFit(t *testing.T) {
	assert.True(t, Plausible(cand(1.2, 0.33, 6.36, 0.85, 0.04), 0.1))
}

func TestPlausible_RejectsTcInsideWindow(t *testing.T) {
	assert.False(t, Plausible(cand(0.95, 0.33, 6.36, 0.85, 0.04), 0.1))
	assert.False(t, Plausible(cand(1.0, 0.33, 6.36, 0.85, 0.04), 0.1))
}

func TestPlausible_RejectsBetaOutOfRange(t *testing.T) {
	assert.False(t, Plausible(cand(1.2, 0.04, 6.36, 0.85, 0.04), 0.1))
	assert.False(t, Plausible(cand(1.2, 1.01, 6.36, 0.85, 0.04), 0.1))
	// Los límites exactos pasan
	assert.True(t, Plausible(cand(1.2, 0.05, 6.36, 0.85, 0.04), 0.1))
	assert.True(t, Plausible(cand(1.2, 1.0, 6.36, 0.85, 0.04), 0.1))
}

func TestPlausible_RejectsOmegaOutOfRange(t *testing.T) {
	assert.False(t, Plausible(cand(1.2, 0.33, 0.9, 0.85, 0.04), 0.1))
	assert.False(t, Plausible(cand(1.2, 0.33, 20.5, 0.85, 0.04), 0.1))
}

func TestPlausible_RejectsLowR2(t *testing.T) {
	assert.False(t, Plausible(cand(1.2, 0.33, 6.36, 0.1, 0.04), 0.1))
	assert.True(t, Plausible(cand(1.2, 0.33, 6.36, 0.11, 0.04), 0.1))
}

func TestFilterPlausible_Idempotent(t *testing.T) {
	candidates := []domain.Candidate{
		cand(1.2, 0.33, 6.36, 0.85, 0.04), // pasa
		cand(0.9, 0.33, 6.36, 0.85, 0.04), // tc dentro de la ventana
		cand(1.5, 0.40, 7.00, 0.90, 0.05), // pasa
		cand(1.2, 0.33, 6.36, 0.05, 0.04), // R² bajo el suelo
	}

	once := FilterPlausible(candidates, 0.1)
	twice := FilterPlausible(once, 0.1)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 2)
}
