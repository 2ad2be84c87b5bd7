package domain

import "math"

// Constantes de la teoría de Sornette (2004). Centralizadas aquí porque
// distintos papers citan valores ligeramente distintos; este es el único
// sitio autoritativo del repo.
const (
	// TheoreticalBeta es el exponente crítico β ≈ 0.33 ± 0.03.
	TheoreticalBeta = 0.33
	// BetaTolerance es la tolerancia empírica alrededor de TheoreticalBeta.
	BetaTolerance = 0.03
	// TheoreticalOmega es la frecuencia angular log-periódica de referencia.
	TheoreticalOmega = 6.36
	// PracticalTcMax es el tc máximo considerado útil para predicción:
	// más allá, la fecha de crash predicha cae demasiado lejos de la ventana.
	PracticalTcMax = 1.5
)

// LPPL evalúa el modelo Log-Periodic Power Law (ecuación 54 de Sornette 2004)
// en un instante t del eje temporal normalizado:
//
//	I(t) = A + B(tc−t)^β + C(tc−t)^β cos(ω ln(tc−t) + φ)
//
// Para t ≥ tc el modelo no está definido y se devuelve 0 (contribución nula),
// igual que hace el fitting: esos puntos nunca entran en el coste.
func LPPL(t float64, p Parameters) float64 {
	dt := p.Tc - t
	if dt <= 0 {
		return 0
	}
	pow := math.Pow(dt, p.Beta)
	return p.A + p.B*pow + p.C*pow*math.Cos(p.Omega*math.Log(dt)+p.Phi)
}

// LPPLSeries evalúa el modelo en cada punto del eje temporal dado.
func LPPLSeries(t []float64, p Parameters) []float64 {
	out := make([]float64, len(t))
	for i, ti := range t {
		out[i] = LPPL(ti, p)
	}
	return out
}

// PowerLaw evalúa la variante sin componente oscilatoria: I(t) = A + B(tc−t)^β.
// Se usa como referencia visual en los charts para separar la tendencia
// power-law de la oscilación log-periódica.
func PowerLaw(t float64, p Parameters) float64 {
	dt := p.Tc - t
	if dt <= 0 {
		return 0
	}
	return p.A + p.B*math.Pow(dt, p.Beta)
}
