package domain

// Candidate es el resultado de un intento individual de fitting: el vector
// ajustado más sus estadísticos y la procedencia (guess inicial). Objeto de
// valor inmutable; el selector y el evaluador solo lo leen.
type Candidate struct {
	Params    Parameters
	R2        float64
	RMSE      float64
	Initial   Parameters // guess inicial que produjo este candidato
	Converged bool       // el optimizador terminó por su criterio de convergencia
}

// TheoreticalDistance devuelve la distancia combinada de (β, ω) a los valores
// teóricos de referencia: |β−0.33| + |ω−6.36|/6.36. Es la métrica que usan
// los criterios theoretical-best y conservative.
func (c Candidate) TheoreticalDistance() float64 {
	return abs(c.Params.Beta-TheoreticalBeta) + abs(c.Params.Omega-TheoreticalOmega)/TheoreticalOmega
}

// BetaProximity devuelve 1 cuando β coincide con el valor teórico y decae
// linealmente hasta 0 a distancia relativa 1.
func (c Candidate) BetaProximity() float64 {
	d := abs(c.Params.Beta-TheoreticalBeta) / TheoreticalBeta
	if d > 1 {
		d = 1
	}
	return 1 - d
}

// OmegaProximity es el análogo de BetaProximity para ω.
func (c Candidate) OmegaProximity() float64 {
	d := abs(c.Params.Omega-TheoreticalOmega) / TheoreticalOmega
	if d > 1 {
		d = 1
	}
	return 1 - d
}

// Stability devuelve 1/(1+RMSE): cerca de 1 para residuos pequeños.
func (c Candidate) Stability() float64 {
	return 1.0 / (1.0 + c.RMSE)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
