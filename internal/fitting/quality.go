package fitting

// quality.go — motor de reglas de calidad del fitting.
//
// Función pura de (candidato, bounds) → veredicto. Chequeos independientes
// (bordes, validez de parámetros, calidad estadística, sobreajuste, y
// convergencia cuando el optimizador no cerró por su criterio) producen
// sub-scores que se promedian; la media se mapea a una etiqueta categórica
// y a una confianza 0-1. Sin estado: evaluar dos veces da lo mismo.

import (
	"fmt"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// Tolerancia relativa para considerar un parámetro pegado al borde de la caja.
const boundaryTolerance = 0.001

// Sub-rangos teóricos: fuera de la caja es implausible, fuera del sub-rango
// es sospechoso.
var theoreticalRanges = map[string][2]float64{
	"tc":    {1.05, 2.0},
	"beta":  {0.2, 0.7},
	"omega": {3.0, 15.0},
}

// Umbrales por niveles de los estadísticos.
var (
	r2Tiers   = [3]float64{0.9, 0.7, 0.5}  // high / acceptable / poor
	rmseTiers = [3]float64{0.05, 0.1, 0.2} // high / acceptable / poor
)

// Multiplicadores de confianza por etiqueta.
var confidenceMultipliers = map[domain.Quality]float64{
	domain.QualityHighQuality:       1.0,
	domain.QualityAcceptable:        0.8,
	domain.QualityBoundaryStuck:     0.3,
	domain.QualityPoorConvergence:   0.4,
	domain.QualityOverfitting:       0.2,
	domain.QualityUnstable:          0.3,
	domain.QualityFailed:            0.1,
	domain.QualityCriticalProximity: 0.95, // diagnóstico fiable, predicción no
}

var paramNames = [domain.NumParams]string{"tc", "beta", "omega", "phi", "A", "B", "C"}

// Evaluate aplica el motor de reglas al candidato dado.
func Evaluate(c domain.Candidate, b domain.Bounds) domain.Assessment {
	var issues []string
	var scores []float64

	stuckLower, stuckUpper, boundaryScore, boundaryIssues := checkBoundarySticking(c.Params, b)
	issues = append(issues, boundaryIssues...)
	scores = append(scores, boundaryScore)

	validityScore, validityIssues := checkParameterValidity(c.Params)
	issues = append(issues, validityIssues...)
	scores = append(scores, validityScore)

	statScore, statIssues := checkStatisticalQuality(c.R2, c.RMSE)
	issues = append(issues, statIssues...)
	scores = append(scores, statScore)

	overfitted, overfitScore := checkOverfitting(c.Params, c.R2)
	if overfitted {
		issues = append(issues, "suspected overfitting: high R² with implausible parameters")
	}
	scores = append(scores, overfitScore)

	// El chequeo de convergencia solo aporta cuando hay algo que señalar:
	// una parada limpia no infla la media del resto de chequeos.
	if !c.Converged {
		issues = append(issues, "optimizer stopped before meeting its convergence criterion")
		scores = append(scores, 0.5)
	}

	overall := mean(scores)
	quality := determineQuality(overall, len(issues), overfitted, !c.Converged, stuckLower, stuckUpper)
	confidence := clamp01(overall * confidenceMultipliers[quality] * (1.0 - 0.05*float64(len(issues))))

	return domain.Assessment{
		Quality:    quality,
		Confidence: confidence,
		Issues:     issues,
		Usable:     determineUsability(quality, c),
	}
}

// checkBoundarySticking detecta parámetros pegados a los bordes de la caja.
// tc pegado pesa doble: suele indicar que el optimizador escapó hacia el
// borde en vez de encontrar un óptimo físico.
func checkBoundarySticking(p domain.Parameters, b domain.Bounds) (tcLower, tcUpper bool, score float64, issues []string) {
	v := p.Vector()
	stuck := 0

	for i, name := range paramNames {
		rangeSize := b.Upper[i] - b.Lower[i]
		tol := boundaryTolerance * rangeSize

		switch {
		case v[i]-b.Lower[i] < tol:
			stuck++
			issues = append(issues, fmt.Sprintf("%s stuck at lower bound (%.6f ≈ %.4f)", name, v[i], b.Lower[i]))
			if name == "tc" {
				tcLower = true
			}
		case b.Upper[i]-v[i] < tol:
			stuck++
			issues = append(issues, fmt.Sprintf("%s stuck at upper bound (%.6f ≈ %.4f)", name, v[i], b.Upper[i]))
			if name == "tc" {
				tcUpper = true
			}
		}
	}

	score = 1.0 - float64(stuck)/float64(domain.NumParams)
	if tcLower || tcUpper {
		score *= 0.5
	}
	return tcLower, tcUpper, score, issues
}

// checkParameterValidity puntúa la posición de tc, β y ω dentro de sus
// sub-rangos teóricos y marca los valores claramente no físicos.
func checkParameterValidity(p domain.Parameters) (float64, []string) {
	var issues []string
	var scores []float64

	values := map[string]float64{"tc": p.Tc, "beta": p.Beta, "omega": p.Omega}
	for name, value := range values {
		r := theoreticalRanges[name]
		if value < r[0] || value > r[1] {
			scores = append(scores, 0.5)
			continue
		}
		center := (r[0] + r[1]) / 2
		scores = append(scores, 1.0-abs(value-center)/(r[1]-r[0]))
	}

	if p.Tc > 2.5 {
		issues = append(issues, fmt.Sprintf("tc=%.3f unrealistically far beyond the data window", p.Tc))
	} else if p.Tc < 1.02 {
		issues = append(issues, fmt.Sprintf("tc=%.3f unrealistically close to the data window", p.Tc))
	}

	return mean(scores), issues
}

// checkStatisticalQuality mapea R² y RMSE a niveles high/acceptable/poor.
func checkStatisticalQuality(r2, rmse float64) (float64, []string) {
	var issues []string
	var scores []float64

	switch {
	case r2 < r2Tiers[2]:
		issues = append(issues, fmt.Sprintf("very low R² (%.3f)", r2))
		scores = append(scores, 0.2)
	case r2 < r2Tiers[1]:
		issues = append(issues, fmt.Sprintf("low R² (%.3f)", r2))
		scores = append(scores, 0.5)
	case r2 < r2Tiers[0]:
		scores = append(scores, 0.8)
	default:
		scores = append(scores, 1.0)
	}

	switch {
	case rmse > rmseTiers[2]:
		issues = append(issues, fmt.Sprintf("very high RMSE (%.3f)", rmse))
		scores = append(scores, 0.2)
	case rmse > rmseTiers[1]:
		issues = append(issues, fmt.Sprintf("high RMSE (%.3f)", rmse))
		scores = append(scores, 0.5)
	case rmse > rmseTiers[0]:
		scores = append(scores, 0.8)
	default:
		scores = append(scores, 1.0)
	}

	return mean(scores), issues
}

// checkOverfitting marca la firma clásica de sobreajuste: R² casi perfecto
// combinado con parámetros no físicos.
func checkOverfitting(p domain.Parameters, r2 float64) (bool, float64) {
	if r2 > 0.95 {
		if p.Tc <= 1.01 {
			return true, 0.2
		}
		if p.Beta < 0.1 || p.Beta > 0.9 {
			return true, 0.2
		}
	}
	return false, 0.9
}

func determineQuality(overall float64, issueCount int, overfitted, unconverged, tcLower, tcUpper bool) domain.Quality {
	// tc pegado al borde decide por encima del score.
	if tcLower {
		return domain.QualityCriticalProximity
	}
	if tcUpper {
		return domain.QualityBoundaryStuck
	}

	switch {
	case overall >= 0.9 && issueCount == 0:
		return domain.QualityHighQuality
	case overall >= 0.7 && issueCount <= 2:
		return domain.QualityAcceptable
	case overall >= 0.5:
		if unconverged {
			return domain.QualityPoorConvergence
		}
		if overfitted {
			return domain.QualityOverfitting
		}
		return domain.QualityUnstable
	default:
		return domain.QualityFailed
	}
}

func determineUsability(quality domain.Quality, c domain.Candidate) bool {
	switch quality {
	case domain.QualityBoundaryStuck, domain.QualityFailed,
		domain.QualityOverfitting, domain.QualityCriticalProximity:
		return false
	}
	if c.R2 < 0.5 {
		return false
	}
	if c.Params.Tc <= 1.01 || c.Params.Tc > 3.0 {
		return false
	}
	return true
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
