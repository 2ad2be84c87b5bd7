package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuality_StringRoundTrip(t *testing.T) {
	all := []Quality{
		QualityFailed, QualityUnstable, QualityPoorConvergence,
		QualityOverfitting, QualityBoundaryStuck, QualityCriticalProximity,
		QualityAcceptable, QualityHighQuality,
	}
	for _, q := range all {
		assert.Equal(t, q, QualityFromString(q.String()), q.String())
	}
}

func TestQualityFromString_Unknown(t *testing.T) {
	assert.Equal(t, QualityFailed, QualityFromString("garbage"))
	assert.Equal(t, QualityFailed, QualityFromString(""))
}

// --- Candidate ---

func TestCandidate_TheoreticalDistance(t *testing.T) {
	exact := Candidate{Params: Parameters{Beta: TheoreticalBeta, Omega: TheoreticalOmega}}
	assert.InDelta(t, 0.0, exact.TheoreticalDistance(), 1e-12)

	off := Candidate{Params: Parameters{Beta: 0.43, Omega: 2 * TheoreticalOmega}}
	assert.InDelta(t, 0.1+1.0, off.TheoreticalDistance(), 1e-9)
}

func TestCandidate_Proximities(t *testing.T) {
	exact := Candidate{Params: Parameters{Beta: TheoreticalBeta, Omega: TheoreticalOmega}}
	assert.InDelta(t, 1.0, exact.BetaProximity(), 1e-12)
	assert.InDelta(t, 1.0, exact.OmegaProximity(), 1e-12)

	// A distancia relativa ≥ 1 la proximidad satura en 0
	far := Candidate{Params: Parameters{Beta: 1.0, Omega: 20.0}}
	assert.InDelta(t, 0.0, far.BetaProximity(), 1e-9)
	assert.GreaterOrEqual(t, far.OmegaProximity(), 0.0)
}

func TestCandidate_Stability(t *testing.T) {
	assert.InDelta(t, 1.0, Candidate{RMSE: 0}.Stability(), 1e-12)
	assert.InDelta(t, 0.5, Candidate{RMSE: 1}.Stability(), 1e-12)
}
