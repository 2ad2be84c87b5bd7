package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out      io.Writer
	table    bool
	criteria bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table, criteria bool) *Console {
	return &Console{out: os.Stdout, table: table, criteria: criteria}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table, criteria bool) *Console {
	return &Console{out: w, table: table, criteria: criteria}
}

// Notify imprime el output en el modo configurado.
func (c *Console) Notify(_ context.Context, results []domain.AnalysisResult) error {
	if len(results) == 0 {
		fmt.Fprintf(c.out, "[%s] no analysis results\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(results)
	} else {
		c.printCompact(results)
	}

	if c.criteria {
		c.printCriteriaBreakdown(results)
	}

	return nil
}

// printCompact imprime lo esencial en una línea por ciclo.
func (c *Console) printCompact(results []domain.AnalysisResult) {
	now := time.Now().Format("15:04:05")
	usable := countUsable(results)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d fits → usable:%d", now, len(results), usable)

	shown := 0
	for _, r := range sortByCrashDate(results) {
		if shown >= 4 {
			break
		}
		if !r.Usable() {
			continue
		}
		fmt.Fprintf(&sb, " | %s/%dd tc=%.3f R²=%.2f %s→%s",
			r.Symbol, r.WindowDays, r.Best.Params.Tc, r.Best.R2,
			qualityIcon(r.Assessment.Quality),
			r.PredictedCrash.Format("2006-01-02"))
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa con parámetros y predicciones.
func (c *Console) printFull(results []domain.AnalysisResult) {
	now := time.Now().Format("15:04:05")
	usable := countUsable(results)

	fmt.Fprintf(c.out, "\n[%s] %d analysis results — usable:%d\n",
		now, len(results), usable)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Window", "tc", "Beta", "Omega", "R2", "RMSE", "Quality", "Conf", "Crash", "Days")

	for i, r := range sortByCrashDate(results) {
		daysLabel := fmt.Sprintf("%d", r.DaysToCrash)
		if r.DaysToCrash < 0 {
			daysLabel = "past"
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			r.Symbol,
			fmt.Sprintf("%dd", r.WindowDays),
			fmt.Sprintf("%.4f", r.Best.Params.Tc),
			fmt.Sprintf("%.3f", r.Best.Params.Beta),
			fmt.Sprintf("%.2f", r.Best.Params.Omega),
			fmt.Sprintf("%.4f", r.Best.R2),
			fmt.Sprintf("%.4f", r.Best.RMSE),
			qualityIcon(r.Assessment.Quality)+" "+r.Assessment.Quality.String(),
			fmt.Sprintf("%.2f", r.Assessment.Confidence),
			crashLabel(r),
			daysLabel,
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  tc = tiempo crítico normalizado (1.0 = fin de ventana) | Conf = confianza 0-1")
	fmt.Fprintln(c.out, "  Quality: ++ high > + acceptable > ~ boundary/unstable > x failed")

	c.printSummary(results)
}

// printSummary destaca las predicciones usables más próximas.
func (c *Console) printSummary(results []domain.AnalysisResult) {
	var usable []domain.AnalysisResult
	for _, r := range results {
		if r.Usable() {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		fmt.Fprintf(c.out, "\n  No usable predictions this cycle\n\n")
		return
	}

	top := sortByCrashDate(usable)
	if len(top) > 5 {
		top = top[:5]
	}

	fmt.Fprintf(c.out, "\n=== NEAREST PREDICTED CRITICAL TIMES (top %d) ===\n", len(top))
	for _, r := range top {
		issues := ""
		if n := len(r.Assessment.Issues); n > 0 {
			issues = fmt.Sprintf("  [%d issue(s)]", n)
		}
		fmt.Fprintf(c.out, "  %s %-10s %dd window  crash %s (%+dd)  conf %.2f%s\n",
			qualityIcon(r.Assessment.Quality), r.Symbol, r.WindowDays,
			crashLabel(r), r.DaysToCrash, r.Assessment.Confidence, issues)
	}
	fmt.Fprintln(c.out)
}

// printCriteriaBreakdown imprime el ganador de cada heurística de selección
// para los top 3 resultados. Útil para ver cuándo las heurísticas discrepan.
func (c *Console) printCriteriaBreakdown(results []domain.AnalysisResult) {
	top := sortByCrashDate(results)
	if len(top) > 3 {
		top = top[:3]
	}

	fmt.Fprintln(c.out, "=== SELECTION BREAKDOWN — winner per heuristic ===")

	for i, r := range top {
		fmt.Fprintf(c.out, "\n--- #%d: %s  %dd window  (default: %s) ---\n",
			i+1, r.Symbol, r.WindowDays, r.Criteria)

		names := make([]string, 0, len(r.ByCriteria))
		for name := range r.ByCriteria {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			cand := r.ByCriteria[name]
			mark := " "
			if name == r.Criteria {
				mark = "*"
			}
			fmt.Fprintf(c.out, "  %s %-18s tc=%.4f beta=%.3f omega=%.2f R²=%.4f\n",
				mark, name, cand.Params.Tc, cand.Params.Beta, cand.Params.Omega, cand.R2)
		}
	}
	fmt.Fprintln(c.out)
}

// PrintHistory imprime resultados persistidos de un símbolo.
func (c *Console) PrintHistory(symbol string, results []domain.AnalysisResult) {
	if len(results) == 0 {
		fmt.Fprintf(c.out, "\n  No stored results for %s.\n", symbol)
		return
	}

	fmt.Fprintf(c.out, "\n=== HISTORY — %s (%d results) ===\n", symbol, len(results))

	table := tablewriter.NewWriter(c.out)
	table.Header("Analyzed", "Window", "tc", "Beta", "Omega", "R2", "Quality", "Crash")

	for _, r := range results {
		table.Append(
			r.AnalyzedAt.Format("2006-01-02"),
			fmt.Sprintf("%dd", r.WindowDays),
			fmt.Sprintf("%.4f", r.Best.Params.Tc),
			fmt.Sprintf("%.3f", r.Best.Params.Beta),
			fmt.Sprintf("%.2f", r.Best.Params.Omega),
			fmt.Sprintf("%.4f", r.Best.R2),
			r.Assessment.Quality.String(),
			crashLabel(r),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

// PrintStats imprime las estadísticas agregadas de la base de resultados.
func (c *Console) PrintStats(stats domain.SummaryStats) {
	fmt.Fprintln(c.out, "\n=== DATABASE SUMMARY ===")
	fmt.Fprintf(c.out, "  analyses: %d across %d symbols\n", stats.TotalAnalyses, stats.UniqueSymbols)
	fmt.Fprintf(c.out, "  usable:   %d (%.0f%%)\n", stats.UsableAnalyses, stats.UsableRate()*100)
	if stats.TotalAnalyses > 0 {
		fmt.Fprintf(c.out, "  R²:       avg %.4f (min %.4f, max %.4f)\n", stats.AvgR2, stats.MinR2, stats.MaxR2)
	}
	if !stats.LatestAnalysis.IsZero() {
		fmt.Fprintf(c.out, "  latest:   %s\n", stats.LatestAnalysis.Format("2006-01-02 15:04"))
	}

	if len(stats.QualityCounts) > 0 {
		names := make([]string, 0, len(stats.QualityCounts))
		for name := range stats.QualityCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(c.out, "  quality distribution:")
		for _, name := range names {
			fmt.Fprintf(c.out, "    %-20s %d\n", name, stats.QualityCounts[name])
		}
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countUsable(results []domain.AnalysisResult) int {
	n := 0
	for _, r := range results {
		if r.Usable() {
			n++
		}
	}
	return n
}

// sortByCrashDate ordena por proximidad de la fecha de crash predicha,
// las predicciones usables primero.
func sortByCrashDate(results []domain.AnalysisResult) []domain.AnalysisResult {
	out := make([]domain.AnalysisResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		ui, uj := out[i].Usable(), out[j].Usable()
		if ui != uj {
			return ui
		}
		return absInt(out[i].DaysToCrash) < absInt(out[j].DaysToCrash)
	})
	return out
}

func crashLabel(r domain.AnalysisResult) string {
	if r.PredictedCrash.IsZero() {
		return "-"
	}
	return r.PredictedCrash.Format("2006-01-02")
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func qualityIcon(q domain.Quality) string {
	switch q {
	case domain.QualityHighQuality:
		return "++"
	case domain.QualityAcceptable, domain.QualityCriticalProximity:
		return "+"
	case domain.QualityBoundaryStuck, domain.QualityUnstable, domain.QualityPoorConvergence, domain.QualityOverfitting:
		return "~"
	default:
		return "x"
	}
}
