package fitting

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// Rejilla determinista de guesses iniciales: el producto cartesiano cubre las
// regiones donde históricamente convergen los fits. Incluye los valores
// teóricos exactos (β=0.33, ω=6.36) para que el optimizador siempre parta al
// menos una vez desde la zona de Sornette.
var (
	gridTc    = []float64{1.05, 1.1, 1.15, 1.2, 1.3, 1.5, 2.0}
	gridBeta  = []float64{0.25, 0.33, 0.45}
	gridOmega = []float64{5.0, 6.36, 8.0}
)

// GridGuesses genera la rejilla determinista de guesses iniciales para la
// serie de log-precios dada. A y B se anclan a la media y a la pendiente
// bruta de la serie; φ=0 y C=0.1 en toda la rejilla. Los componentes
// lineales del guess son solo informativos (procedencia): el fitter los
// recalcula en forma cerrada.
func GridGuesses(logPrices []float64) []domain.Parameters {
	aBase := stat.Mean(logPrices, nil)
	bBase := roughSlope(logPrices)

	out := make([]domain.Parameters, 0, len(gridTc)*len(gridBeta)*len(gridOmega))
	for _, tc := range gridTc {
		for _, beta := range gridBeta {
			for _, omega := range gridOmega {
				out = append(out, domain.Parameters{
					Tc: tc, Beta: beta, Omega: omega, Phi: 0,
					A: aBase, B: bBase, C: 0.1,
				})
			}
		}
	}
	return out
}

// RandomGuess extrae un guess inicial aleatorio del rng dado: tc poco más
// allá de la ventana, β y ω en sus rangos típicos, A y B perturbados
// alrededor de los anclajes de la serie.
func RandomGuess(rng *rand.Rand, logPrices []float64) domain.Parameters {
	mean := stat.Mean(logPrices, nil)
	std := stat.StdDev(logPrices, nil)

	return domain.Parameters{
		Tc:    1.0 + uniform(rng, 0.05, 0.5),
		Beta:  uniform(rng, 0.15, 0.7),
		Omega: uniform(rng, 4.0, 9.0),
		Phi:   uniform(rng, -math.Pi, math.Pi),
		A:     mean + rng.NormFloat64()*std*0.1,
		B:     roughSlope(logPrices) * (1 + rng.NormFloat64()*0.1),
		C:     uniform(rng, 0.05, 0.15),
	}
}

// roughSlope devuelve la pendiente bruta de la serie por punto.
func roughSlope(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	return (y[len(y)-1] - y[0]) / float64(len(y))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
