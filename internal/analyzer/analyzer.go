package analyzer

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/fitting"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/ports"
)

// Config controla el comportamiento del analizador.
type Config struct {
	Symbols     []string      // símbolos lógicos a analizar
	Windows     []int         // ventanas de análisis en días
	Interval    time.Duration // intervalo entre ciclos del scheduler
	Workers     int           // workers del pool de tareas (símbolo × ventana)
	TaskTimeout time.Duration // timeout por tarea
	Dedup       bool          // saltar análisis ya hechos para la fecha base
	Seed        int64         // semilla del RNG; 0 = derivada del reloj
	Fitting     fitting.Config
	RunOnceMode bool // un ciclo y salir
}

// DefaultConfig devuelve una configuración sensata para análisis batch.
func DefaultConfig() Config {
	return Config{
		Windows:     []int{365, 730},
		Interval:    24 * time.Hour,
		Workers:     4,
		TaskTimeout: 5 * time.Minute,
		Dedup:       true,
		Fitting:     fitting.DefaultConfig(),
	}
}

// Analyzer es el orquestador: fetch → fit → select → evaluate → predict →
// notify → persist → export/chart, para cada (símbolo, ventana).
type Analyzer struct {
	cfg      Config
	source   ports.SeriesProvider
	storage  ports.Storage
	notifier ports.Notifier
	chart    ports.ChartRenderer // opcional
	exporter ports.Exporter      // opcional
	fitter   *fitting.Fitter
}

// New crea un Analyzer con todas las dependencias inyectadas.
// chart y exporter pueden ser nil.
func New(cfg Config, source ports.SeriesProvider, storage ports.Storage,
	notifier ports.Notifier, chart ports.ChartRenderer, exporter ports.Exporter) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		source:   source,
		storage:  storage,
		notifier: notifier,
		chart:    chart,
		exporter: exporter,
		fitter:   fitting.NewFitter(cfg.Fitting),
	}
}

// Run ejecuta el ciclo de análisis hasta que el contexto se cancele.
// Con RunOnceMode ejecuta un solo ciclo.
func (a *Analyzer) Run(ctx context.Context) error {
	slog.Info("analyzer starting",
		"symbols", a.cfg.Symbols,
		"windows", a.cfg.Windows,
		"interval", a.cfg.Interval,
		"once", a.cfg.RunOnceMode,
	)

	if err := a.runCycle(ctx); err != nil {
		slog.Error("analysis cycle failed", "err", err)
		if a.cfg.RunOnceMode {
			return err
		}
	}
	if a.cfg.RunOnceMode {
		return nil
	}

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("analyzer stopped")
			return nil
		case <-ticker.C:
			if err := a.runCycle(ctx); err != nil {
				slog.Error("analysis cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve los resultados.
func (a *Analyzer) RunOnce(ctx context.Context) ([]domain.AnalysisResult, error) {
	return a.cycle(ctx, time.Now().UTC())
}

// runCycle ejecuta un ciclo completo y notifica/persiste/exporta.
func (a *Analyzer) runCycle(ctx context.Context) error {
	start := time.Now()

	results, err := a.cycle(ctx, start.UTC())
	if err != nil {
		return err
	}

	if err := a.notifier.Notify(ctx, results); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	if a.exporter != nil && len(results) > 0 {
		if _, err := a.exporter.Export(results); err != nil {
			slog.Warn("export error", "err", err)
		}
	}

	slog.Info("analysis cycle complete",
		"results", len(results),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle construye la lista de tareas (símbolo × ventana), aplica la
// deduplicación y las reparte en el pool.
func (a *Analyzer) cycle(ctx context.Context, basis time.Time) ([]domain.AnalysisResult, error) {
	if len(a.cfg.Symbols) == 0 {
		return nil, fmt.Errorf("analyzer.cycle: no symbols configured")
	}

	batchID := uuid.NewString()
	basisDay := basis.Truncate(24 * time.Hour)

	var tasks []task
	for _, symbol := range a.cfg.Symbols {
		for _, window := range a.cfg.Windows {
			if a.cfg.Dedup && a.storage != nil {
				done, err := a.storage.HasRecent(ctx, symbol, basisDay, window)
				if err != nil {
					slog.Warn("dedup check failed", "symbol", symbol, "window", window, "err", err)
				} else if done {
					slog.Debug("skipping already-analyzed pair", "symbol", symbol, "window", window)
					continue
				}
			}
			tasks = append(tasks, task{symbol: symbol, window: window})
		}
	}
	if len(tasks) == 0 {
		slog.Info("nothing to analyze — all pairs already done for basis date",
			"basis", basisDay.Format("2006-01-02"))
		return nil, nil
	}

	results := a.runTasks(ctx, tasks, basisDay, batchID)
	return results, nil
}

// AnalyzeOne analiza un único (símbolo, ventana) contra la fecha base dada.
// Es el bloque que ejecutan los workers; también lo usa el modo validate.
func (a *Analyzer) AnalyzeOne(ctx context.Context, symbol string, windowDays int,
	basis time.Time, batchID string) (domain.AnalysisResult, error) {

	start := basis.AddDate(0, 0, -windowDays)
	series, err := a.source.FetchSeries(ctx, symbol, start, basis)
	if err != nil {
		a.recordFailure(ctx, symbol, basis, windowDays, fmt.Sprintf("data fetch: %v", err), 0, 0)
		return domain.AnalysisResult{}, fmt.Errorf("analyzer.AnalyzeOne: fetch %s: %w", symbol, err)
	}
	if err := series.Validate(); err != nil {
		a.recordFailure(ctx, symbol, basis, windowDays, fmt.Sprintf("invalid series: %v", err), 0, 0)
		return domain.AnalysisResult{}, fmt.Errorf("analyzer.AnalyzeOne: %w", err)
	}

	return a.AnalyzeSeries(ctx, series, basis, batchID)
}

// AnalyzeSeries ejecuta el núcleo del análisis sobre una serie ya en memoria:
// fit multi-arranque, selección multi-criterio, evaluación de calidad y
// conversión de tc a fecha de crash.
func (a *Analyzer) AnalyzeSeries(ctx context.Context, series domain.PriceSeries,
	basis time.Time, batchID string) (domain.AnalysisResult, error) {

	t := series.NormalizedTime()
	y := series.LogPrices()
	bounds := domain.BoundsForLogPrices(y)
	windowDays := series.WindowDays()

	rng := rand.New(rand.NewSource(a.taskSeed(series.Symbol, windowDays, basis)))
	candidates, trials := a.fitter.AttemptFits(t, y, bounds, rng)

	if len(candidates) == 0 {
		a.recordFailure(ctx, series.Symbol, basis, windowDays, "no plausible candidates", trials, 0)
		return domain.AnalysisResult{}, fmt.Errorf("analyzer.AnalyzeSeries: %s: no plausible candidates in %d trials",
			series.Symbol, trials)
	}

	selection := fitting.Select(candidates)
	best, ok := selection.Best()
	if !ok {
		a.recordFailure(ctx, series.Symbol, basis, windowDays, "selection produced no winner", trials, len(candidates))
		return domain.AnalysisResult{}, fmt.Errorf("analyzer.AnalyzeSeries: %s: empty selection", series.Symbol)
	}

	byCriteria := make(map[string]domain.Candidate, len(selection.Selections))
	for criteria, cand := range selection.Selections {
		byCriteria[string(criteria)] = cand
	}

	assessment := fitting.Evaluate(best, bounds)
	crash := domain.CrashDate(best.Params.Tc, series.End(), windowDays)

	result := domain.AnalysisResult{
		BatchID:        batchID,
		Symbol:         series.Symbol,
		Source:         series.Source,
		AnalyzedAt:     time.Now().UTC(),
		PeriodStart:    series.Start(),
		PeriodEnd:      series.End(),
		DataPoints:     series.Len(),
		WindowDays:     windowDays,
		Best:           best,
		Criteria:       string(selection.Default),
		ByCriteria:     byCriteria,
		Assessment:     assessment,
		PredictedCrash: crash,
		DaysToCrash:    domain.DaysToCrash(best.Params.Tc, series.End(), windowDays, basis),
		TotalTrials:    trials,
		PlausibleCount: len(candidates),
	}

	if a.storage != nil {
		id, err := a.storage.SaveResult(ctx, result)
		if err != nil {
			slog.Warn("storage error", "symbol", series.Symbol, "err", err)
		} else {
			result.ID = id
		}
	}
	if a.chart != nil {
		if path, err := a.chart.Render(series, result); err != nil {
			slog.Warn("chart render failed", "symbol", series.Symbol, "err", err)
		} else {
			slog.Debug("chart written", "path", path)
		}
	}

	slog.Info("analysis done",
		"symbol", series.Symbol,
		"window_days", windowDays,
		"tc", fmt.Sprintf("%.4f", best.Params.Tc),
		"beta", fmt.Sprintf("%.3f", best.Params.Beta),
		"omega", fmt.Sprintf("%.2f", best.Params.Omega),
		"r2", fmt.Sprintf("%.4f", best.R2),
		"quality", assessment.Quality.String(),
		"crash_date", crash.Format("2006-01-02"),
	)
	return result, nil
}

func (a *Analyzer) recordFailure(ctx context.Context, symbol string, basis time.Time,
	windowDays int, reason string, trials, plausible int) {
	if a.storage == nil {
		return
	}
	failure := domain.FittingFailure{
		Symbol:      symbol,
		BasisDate:   basis,
		WindowDays:  windowDays,
		Reason:      reason,
		TotalTrials: trials,
		Plausible:   plausible,
		FailedAt:    time.Now().UTC(),
	}
	if err := a.storage.RecordFailure(ctx, failure); err != nil {
		slog.Warn("failure tracking error", "symbol", symbol, "err", err)
	}
}

// taskSeed deriva una semilla estable por (símbolo, ventana, fecha base)
// a partir de la semilla global. Con cfg.Seed fijo, los runs se reproducen.
func (a *Analyzer) taskSeed(symbol string, windowDays int, basis time.Time) int64 {
	base := a.cfg.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s", symbol, windowDays, basis.Format("2006-01-02"))
	return base ^ int64(h.Sum64())
}
