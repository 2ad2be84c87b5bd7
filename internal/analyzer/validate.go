package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// CrashCase describe un crash histórico documentado con los parámetros
// LPPL publicados para él, usado para validar el pipeline de punta a punta.
type CrashCase struct {
	Name           string
	Symbol         string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	CrashDate      time.Time
	ExpectedBeta   float64
	BetaTolerance  float64
	ExpectedOmega  float64
	OmegaTolerance float64
}

// HistoricalCases son los crashes de referencia de la literatura.
// Black Monday es el caso canónico: ω=7.4 es el valor empírico publicado
// para 1987, distinto del ω teórico genérico.
var HistoricalCases = map[string]CrashCase{
	"1987_black_monday": {
		Name:           "1987 Black Monday",
		Symbol:         "^GSPC",
		PeriodStart:    time.Date(1985, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(1987, 10, 31, 0, 0, 0, 0, time.UTC),
		CrashDate:      time.Date(1987, 10, 19, 0, 0, 0, 0, time.UTC),
		ExpectedBeta:   0.33,
		BetaTolerance:  0.05,
		ExpectedOmega:  7.4,
		OmegaTolerance: 0.3,
	},
	"2000_dotcom_peak": {
		Name:           "2000 Dot-com peak",
		Symbol:         "NASDAQCOM",
		PeriodStart:    time.Date(1997, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2000, 3, 10, 0, 0, 0, 0, time.UTC),
		CrashDate:      time.Date(2000, 3, 10, 0, 0, 0, 0, time.UTC),
		ExpectedBeta:   0.33,
		BetaTolerance:  0.15,
		ExpectedOmega:  6.36,
		OmegaTolerance: 2.0,
	},
}

// ValidationOutcome resume cuánto se acercó el fit a los valores publicados.
type ValidationOutcome struct {
	Case       CrashCase
	Result     domain.AnalysisResult
	BetaError  float64
	OmegaError float64
	BetaOK     bool
	OmegaOK    bool
	Passed     bool
}

// Validate ejecuta el pipeline completo contra un crash histórico y compara
// beta y omega del ganador con los valores publicados.
func (a *Analyzer) Validate(ctx context.Context, name string) (ValidationOutcome, error) {
	crash, ok := HistoricalCases[name]
	if !ok {
		return ValidationOutcome{}, fmt.Errorf("analyzer.Validate: unknown case %q", name)
	}

	series, err := a.source.FetchSeries(ctx, crash.Symbol, crash.PeriodStart, crash.PeriodEnd)
	if err != nil {
		return ValidationOutcome{}, fmt.Errorf("analyzer.Validate: fetch %s: %w", crash.Symbol, err)
	}
	if err := series.Validate(); err != nil {
		return ValidationOutcome{}, fmt.Errorf("analyzer.Validate: %w", err)
	}

	result, err := a.AnalyzeSeries(ctx, series, crash.PeriodEnd, "validation-"+name)
	if err != nil {
		return ValidationOutcome{}, err
	}

	outcome := ValidationOutcome{
		Case:       crash,
		Result:     result,
		BetaError:  math.Abs(result.Best.Params.Beta - crash.ExpectedBeta),
		OmegaError: math.Abs(result.Best.Params.Omega - crash.ExpectedOmega),
	}
	outcome.BetaOK = outcome.BetaError <= crash.BetaTolerance
	outcome.OmegaOK = outcome.OmegaError <= crash.OmegaTolerance
	outcome.Passed = outcome.BetaOK && outcome.OmegaOK

	slog.Info("validation case finished",
		"case", crash.Name,
		"beta", fmt.Sprintf("%.3f", result.Best.Params.Beta),
		"beta_err", fmt.Sprintf("%.3f", outcome.BetaError),
		"omega", fmt.Sprintf("%.2f", result.Best.Params.Omega),
		"omega_err", fmt.Sprintf("%.2f", outcome.OmegaError),
		"passed", outcome.Passed,
	)
	return outcome, nil
}
