package domain

import (
	"fmt"
	"math"
	"time"
)

// MinSeriesPoints es el mínimo de observaciones para intentar un ajuste:
// con menos puntos el modelo de 7 parámetros no tiene sentido estadístico.
const MinSeriesPoints = 30

// PricePoint es una observación diaria de precio de cierre.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries es una serie ordenada de cierres diarios de un símbolo,
// tal como la devuelve un SeriesProvider. Inmutable una vez construida.
type PriceSeries struct {
	Symbol string
	Source string // proveedor que sirvió los datos (fred, alpha_vantage, yahoo)
	Points []PricePoint
}

// Len devuelve el número de observaciones.
func (s PriceSeries) Len() int { return len(s.Points) }

// Start devuelve la fecha de la primera observación.
func (s PriceSeries) Start() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Date
}

// End devuelve la fecha de la última observación.
func (s PriceSeries) End() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// WindowDays devuelve los días naturales cubiertos por la serie.
func (s PriceSeries) WindowDays() int {
	if len(s.Points) < 2 {
		return 0
	}
	return int(s.End().Sub(s.Start()).Hours() / 24)
}

// LogPrices devuelve el logaritmo natural de los cierres.
// Requiere precios positivos; Validate lo garantiza antes.
func (s PriceSeries) LogPrices() []float64 {
	out := make([]float64, len(s.Points))
	for i, pt := range s.Points {
		out[i] = math.Log(pt.Close)
	}
	return out
}

// NormalizedTime devuelve el eje temporal normalizado a [0, 1]:
// la primera observación es 0 y la última es 1, espaciado uniforme por
// índice (días de mercado, no naturales — igual que los fits de referencia).
func (s PriceSeries) NormalizedTime() []float64 {
	n := len(s.Points)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	for i := range out {
		out[i] = float64(i) / float64(n-1)
	}
	return out
}

// Validate comprueba que la serie es apta para el fitting: suficientes
// puntos, cierres positivos y fechas estrictamente crecientes.
func (s PriceSeries) Validate() error {
	if len(s.Points) < MinSeriesPoints {
		return fmt.Errorf("series %s: %d points, need at least %d", s.Symbol, len(s.Points), MinSeriesPoints)
	}
	for i, pt := range s.Points {
		if pt.Close <= 0 || math.IsNaN(pt.Close) || math.IsInf(pt.Close, 0) {
			return fmt.Errorf("series %s: invalid close %v at %s", s.Symbol, pt.Close, pt.Date.Format("2006-01-02"))
		}
		if i > 0 && !pt.Date.After(s.Points[i-1].Date) {
			return fmt.Errorf("series %s: dates not strictly increasing at index %d", s.Symbol, i)
		}
	}
	return nil
}
