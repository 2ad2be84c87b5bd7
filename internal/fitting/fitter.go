package fitting

// fitter.go — ajuste no lineal del modelo LPPL sobre log-precios.
//
// Estrategia:
//   - El modelo es lineal en (A, B, C): para cada (tc, β, ω, φ) esos
//     coeficientes se resuelven en forma cerrada por mínimos cuadrados
//     (QR de gonum/mat) y Nelder-Mead explora solo las 4 dimensiones no
//     lineales. Buscar las 7 a la vez deja al simplex vagando por valles
//     planos y convergiendo en los bordes de la caja.
//   - Los límites de los parámetros no lineales se imponen con penalización
//     cuadrática fuera de la caja: el simplex puede asomarse pero nunca
//     converge fuera.
//   - Un intento fallido (error del optimizador, sistema lineal singular,
//     parámetros no finitos) se descarta y se cuenta; nunca aborta el
//     análisis. Los intentos son independientes entre sí: sin estado
//     compartido, paralelizables.

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

const (
	defaultRandomTries    = 40
	defaultMaxEvaluations = 20000
	defaultR2Floor        = 0.1

	// Peso de la penalización por salirse de la caja. Grande frente al SSE
	// típico (~1e-1 en log-precio) para que el simplex vuelva enseguida.
	boundPenaltyWeight = 1e6

	// Dimensiones no lineales del vector canónico: tc, β, ω, φ.
	numNonlinear = 4
)

// Config controla el fitting multi-arranque.
type Config struct {
	RandomTries    int     // guesses aleatorios además de la rejilla determinista
	MaxEvaluations int     // evaluaciones de coste por intento
	R2Floor        float64 // R² mínimo para aceptar un candidato
	Workers        int     // workers del pool paralelo; <= 0 = secuencial
}

// DefaultConfig devuelve una configuración sensata para análisis batch.
func DefaultConfig() Config {
	return Config{
		RandomTries:    defaultRandomTries,
		MaxEvaluations: defaultMaxEvaluations,
		R2Floor:        defaultR2Floor,
	}
}

// Fitter ejecuta ajustes LPPL individuales y multi-arranque.
type Fitter struct {
	cfg Config
}

// NewFitter crea un Fitter con la configuración dada, aplicando defaults a
// los campos no establecidos.
func NewFitter(cfg Config) *Fitter {
	if cfg.RandomTries <= 0 {
		cfg.RandomTries = defaultRandomTries
	}
	if cfg.MaxEvaluations <= 0 {
		cfg.MaxEvaluations = defaultMaxEvaluations
	}
	if cfg.R2Floor <= 0 {
		cfg.R2Floor = defaultR2Floor
	}
	return &Fitter{cfg: cfg}
}

// Fit ejecuta un único intento de ajuste desde el guess inicial dado. Solo
// los componentes no lineales del guess importan: A, B y C se recalculan en
// forma cerrada. Devuelve error si el optimizador falla o el resultado no es
// finito; la calidad estadística del ajuste NO se juzga aquí (eso es del gate).
func (f *Fitter) Fit(t, y []float64, p0 domain.Parameters, b domain.Bounds) (domain.Candidate, error) {
	if len(t) == 0 || len(t) != len(y) {
		return domain.Candidate{}, fmt.Errorf("fitting.Fit: t/y length mismatch (%d vs %d)", len(t), len(y))
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return profiledSSE(t, y, x, b)
		},
	}
	settings := &optimize.Settings{FuncEvaluations: f.cfg.MaxEvaluations}

	x0 := []float64{p0.Tc, p0.Beta, p0.Omega, p0.Phi}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("fitting.Fit: minimize: %w", err)
	}

	a, bb, c, ok := linearCoeffs(t, y, res.X[0], res.X[1], res.X[2], res.X[3])
	if !ok {
		return domain.Candidate{}, fmt.Errorf("fitting.Fit: singular linear system at optimum")
	}

	p := domain.Parameters{
		Tc: res.X[0], Beta: res.X[1], Omega: res.X[2], Phi: res.X[3],
		A: a, B: bb, C: c,
	}
	if !p.IsFinite() {
		return domain.Candidate{}, fmt.Errorf("fitting.Fit: non-finite parameters")
	}
	// La penalización deja violaciones residuales minúsculas; se proyectan.
	p = b.Clamp(p)

	pred := domain.LPPLSeries(t, p)
	r2 := stat.RSquaredFrom(pred, y, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return domain.Candidate{}, fmt.Errorf("fitting.Fit: degenerate fit statistics")
	}

	return domain.Candidate{
		Params:    p,
		R2:        r2,
		RMSE:      rootMeanSquaredError(y, pred),
		Initial:   p0,
		Converged: statusConverged(res.Status),
	}, nil
}

// AttemptFits lanza el fitting multi-arranque: la rejilla determinista de
// guesses más cfg.RandomTries guesses extraídos del rng inyectado. Devuelve
// los candidatos que superan el gate de plausibilidad y el total de intentos.
//
// El rng es explícito para que los runs sean reproducibles con semilla fija.
// Con cfg.Workers > 1 los intentos se reparten en un pool de workers; los
// guesses se generan siempre en secuencia, así que el conjunto de intentos es
// idéntico en ambos modos (solo cambia el orden de los resultados).
func (f *Fitter) AttemptFits(t, y []float64, b domain.Bounds, rng *rand.Rand) ([]domain.Candidate, int) {
	guesses := GridGuesses(y)
	for i := 0; i < f.cfg.RandomTries; i++ {
		guesses = append(guesses, RandomGuess(rng, y))
	}

	var candidates []domain.Candidate
	if f.cfg.Workers > 1 {
		candidates = f.fitConcurrent(t, y, b, guesses)
	} else {
		candidates = f.fitSequential(t, y, b, guesses)
	}

	plausible := FilterPlausible(candidates, f.cfg.R2Floor)
	slog.Debug("fitting attempts complete",
		"trials", len(guesses),
		"converged", len(candidates),
		"plausible", len(plausible),
	)
	return plausible, len(guesses)
}

func (f *Fitter) fitSequential(t, y []float64, b domain.Bounds, guesses []domain.Parameters) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(guesses))
	for _, g := range guesses {
		c, err := f.Fit(t, y, g, b)
		if err != nil {
			slog.Debug("fit trial failed", "initial", g.String(), "err", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

// profiledSSE es el coste a minimizar sobre x = [tc, β, ω, φ]: para cada
// punto del simplex resuelve (A, B, C) por mínimos cuadrados y devuelve la
// suma de cuadrados de residuos más la penalización cuadrática por cada
// parámetro no lineal fuera de la caja.
func profiledSSE(t, y []float64, x []float64, b domain.Bounds) float64 {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
	}
	// tc dentro de la ventana deja dt <= 0 en la cola de la serie: coste
	// indefinido, el simplex descarta el vértice.
	if x[0] <= 1.0 {
		return math.Inf(1)
	}

	penalty := 0.0
	for i := 0; i < numNonlinear; i++ {
		if x[i] < b.Lower[i] {
			d := b.Lower[i] - x[i]
			penalty += boundPenaltyWeight * d * d
		} else if x[i] > b.Upper[i] {
			d := x[i] - b.Upper[i]
			penalty += boundPenaltyWeight * d * d
		}
	}

	a, bb, c, ok := linearCoeffs(t, y, x[0], x[1], x[2], x[3])
	if !ok {
		return math.Inf(1)
	}

	p := domain.Parameters{Tc: x[0], Beta: x[1], Omega: x[2], Phi: x[3], A: a, B: bb, C: c}
	sse := 0.0
	for i, ti := range t {
		r := y[i] - domain.LPPL(ti, p)
		sse += r * r
	}
	if math.IsNaN(sse) {
		return math.Inf(1)
	}
	return sse + penalty
}

// linearCoeffs resuelve los coeficientes lineales (A, B, C) por mínimos
// cuadrados ordinarios para los parámetros no lineales dados: el modelo es
// y ≈ A·1 + B·f + C·g con f = (tc−t)^β y g = f·cos(ω ln(tc−t) + φ).
func linearCoeffs(t, y []float64, tc, beta, omega, phi float64) (a, b, c float64, ok bool) {
	n := len(t)
	design := mat.NewDense(n, 3, nil)
	for i, ti := range t {
		dt := tc - ti
		if dt <= 0 {
			return 0, 0, 0, false
		}
		f := math.Pow(dt, beta)
		design.Set(i, 0, 1)
		design.Set(i, 1, f)
		design.Set(i, 2, f*math.Cos(omega*math.Log(dt)+phi))
	}

	var qr mat.QR
	qr.Factorize(design)

	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, mat.NewVecDense(n, y)); err != nil {
		return 0, 0, 0, false
	}

	a, b, c = sol.AtVec(0), sol.AtVec(1), sol.AtVec(2)
	if math.IsNaN(a) || math.IsNaN(b) || math.IsNaN(c) ||
		math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsInf(c, 0) {
		return 0, 0, 0, false
	}
	return a, b, c, true
}

// statusConverged distingue una parada por criterio de convergencia de una
// parada por límite de evaluaciones o fallo del método.
func statusConverged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence,
		optimize.GradientThreshold, optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

func rootMeanSquaredError(y, pred []float64) float64 {
	sum := 0.0
	for i := range y {
		r := y[i] - pred[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(y)))
}
