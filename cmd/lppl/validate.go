package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/analyzer"
)

// runValidation ejecuta un caso de crash histórico y reporta si los
// parámetros recuperados coinciden con los publicados en la literatura.
func runValidation(ctx context.Context, a *analyzer.Analyzer, name string) {
	if name == "list" {
		printCases()
		return
	}

	slog.Info("=== VALIDATION MODE: fitting a documented historical crash ===", "case", name)

	outcome, err := a.Validate(ctx, name)
	if err != nil {
		slog.Error("validation failed", "case", name, "err", err)
		os.Exit(1)
	}

	crash := outcome.Case
	best := outcome.Result.Best

	fmt.Printf("\n=== %s ===\n", crash.Name)
	fmt.Printf("  Symbol:    %s  (%s → %s)\n", crash.Symbol,
		crash.PeriodStart.Format("2006-01-02"), crash.PeriodEnd.Format("2006-01-02"))
	fmt.Printf("  Crash:     %s (actual)  vs  %s (predicted)\n",
		crash.CrashDate.Format("2006-01-02"),
		outcome.Result.PredictedCrash.Format("2006-01-02"))
	fmt.Printf("  R²:        %.4f   quality: %s\n", best.R2, outcome.Result.Assessment.Quality)
	fmt.Printf("  beta:      %.3f  expected %.2f ± %.2f  →  %s\n",
		best.Params.Beta, crash.ExpectedBeta, crash.BetaTolerance, passLabel(outcome.BetaOK))
	fmt.Printf("  omega:     %.2f  expected %.2f ± %.2f  →  %s\n",
		best.Params.Omega, crash.ExpectedOmega, crash.OmegaTolerance, passLabel(outcome.OmegaOK))

	if outcome.Passed {
		fmt.Printf("\n  RESULT: PASS — recovered parameters match the published fit\n\n")
		return
	}
	fmt.Printf("\n  RESULT: FAIL — parameters outside published tolerances\n\n")
	os.Exit(1)
}

func printCases() {
	names := make([]string, 0, len(analyzer.HistoricalCases))
	for name := range analyzer.HistoricalCases {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available validation cases:")
	for _, name := range names {
		c := analyzer.HistoricalCases[name]
		fmt.Printf("  %-20s %s (%s, crash %s)\n",
			name, c.Name, c.Symbol, c.CrashDate.Format("2006-01-02"))
	}
}

func passLabel(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
