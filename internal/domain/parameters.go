package domain

import (
	"fmt"
	"math"
)

// NumParams es la dimensión del vector de parámetros LPPL.
const NumParams = 7

// Parameters es el vector de 7 parámetros del modelo LPPL.
type Parameters struct {
	Tc    float64 // tiempo crítico en el eje normalizado (> 1 = más allá de la ventana)
	Beta  float64 // exponente power-law
	Omega float64 // frecuencia angular log-periódica
	Phi   float64 // fase
	A     float64 // nivel de log-precio
	B     float64 // amplitud power-law
	C     float64 // amplitud log-periódica
}

// Vector devuelve los parámetros en el orden canónico [tc, β, ω, φ, A, B, C].
func (p Parameters) Vector() []float64 {
	return []float64{p.Tc, p.Beta, p.Omega, p.Phi, p.A, p.B, p.C}
}

// ParametersFromVector reconstruye Parameters desde el orden canónico.
func ParametersFromVector(v []float64) Parameters {
	return Parameters{Tc: v[0], Beta: v[1], Omega: v[2], Phi: v[3], A: v[4], B: v[5], C: v[6]}
}

// IsFinite devuelve true si ningún parámetro es NaN ni ±Inf.
func (p Parameters) IsFinite() bool {
	for _, v := range p.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Parameters) String() string {
	return fmt.Sprintf("tc=%.4f β=%.3f ω=%.2f φ=%.2f A=%.3f B=%.3f C=%.3f",
		p.Tc, p.Beta, p.Omega, p.Phi, p.A, p.B, p.C)
}

// Bounds define la caja de búsqueda del optimizador, en el orden canónico.
type Bounds struct {
	Lower [NumParams]float64
	Upper [NumParams]float64
}

// BoundsForLogPrices construye los límites de búsqueda a partir del rango
// observado de log-precios. Los parámetros lineales (A, B, C) escalan con el
// rango de la serie; los estructurales (tc, β, ω, φ) usan rangos genéricos
// amplios que luego recortan los gates de plausibilidad.
//
// Los coeficientes lineales usan 3× el rango: con tc cerca de la ventana,
// |B| legítimos superan el rango bruto de la serie (la ley de potencias
// comprime (tc−t)^β muy por debajo de 1) y un límite de 1× expulsa al
// optimizador hacia β pegado al borde.
func BoundsForLogPrices(logPrices []float64) Bounds {
	lo, hi := logPrices[0], logPrices[0]
	for _, v := range logPrices {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	priceRange := hi - lo
	if priceRange <= 0 {
		priceRange = 1
	}
	linear := 3 * priceRange

	return Bounds{
		Lower: [NumParams]float64{1.001, 0.05, 1.0, -2 * math.Pi, lo - linear, -linear, -linear},
		Upper: [NumParams]float64{3.0, 1.0, 20.0, 2 * math.Pi, hi + linear, linear, linear},
	}
}

// Contains devuelve true si el vector cae dentro de la caja (bordes incluidos).
func (b Bounds) Contains(p Parameters) bool {
	for i, v := range p.Vector() {
		if v < b.Lower[i] || v > b.Upper[i] {
			return false
		}
	}
	return true
}

// Clamp proyecta el vector dentro de la caja.
func (b Bounds) Clamp(p Parameters) Parameters {
	v := p.Vector()
	for i := range v {
		if v[i] < b.Lower[i] {
			v[i] = b.Lower[i]
		}
		if v[i] > b.Upper[i] {
			v[i] = b.Upper[i]
		}
	}
	return ParametersFromVector(v)
}
