package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// FileExporter implementa ports.Exporter escribiendo CSV y JSON por batch.
type FileExporter struct {
	dir       string
	writeCSV  bool
	writeJSON bool
}

// NewFileExporter crea un exporter que escribe en el directorio dado.
// Crea el directorio si no existe.
func NewFileExporter(dir string, writeCSV, writeJSON bool) (*FileExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export.NewFileExporter: mkdir %q: %w", dir, err)
	}
	return &FileExporter{dir: dir, writeCSV: writeCSV, writeJSON: writeJSON}, nil
}

// Export escribe los resultados en los formatos configurados y devuelve
// las rutas de los archivos escritos.
func (e *FileExporter) Export(results []domain.AnalysisResult) ([]string, error) {
	if len(results) == 0 {
		return nil, nil
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	var paths []string

	if e.writeCSV {
		path := filepath.Join(e.dir, fmt.Sprintf("analysis_%s.csv", stamp))
		if err := e.exportCSV(path, results); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if e.writeJSON {
		path := filepath.Join(e.dir, fmt.Sprintf("analysis_%s.json", stamp))
		if err := e.exportJSON(path, results); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var csvHeader = []string{
	"symbol", "source", "analyzed_at", "period_start", "period_end",
	"data_points", "window_days",
	"tc", "beta", "omega", "phi", "a", "b", "c",
	"r_squared", "rmse", "quality", "confidence", "usable",
	"selection_criteria", "predicted_crash_date", "days_to_crash",
	"total_trials", "plausible_count", "batch_id",
}

func (e *FileExporter) exportCSV(path string, results []domain.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export.exportCSV: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("export.exportCSV: header: %w", err)
	}

	for _, r := range results {
		row := []string{
			r.Symbol,
			r.Source,
			r.AnalyzedAt.UTC().Format(time.RFC3339),
			r.PeriodStart.Format("2006-01-02"),
			r.PeriodEnd.Format("2006-01-02"),
			strconv.Itoa(r.DataPoints),
			strconv.Itoa(r.WindowDays),
			formatFloat(r.Best.Params.Tc),
			formatFloat(r.Best.Params.Beta),
			formatFloat(r.Best.Params.Omega),
			formatFloat(r.Best.Params.Phi),
			formatFloat(r.Best.Params.A),
			formatFloat(r.Best.Params.B),
			formatFloat(r.Best.Params.C),
			formatFloat(r.Best.R2),
			formatFloat(r.Best.RMSE),
			r.Assessment.Quality.String(),
			formatFloat(r.Assessment.Confidence),
			strconv.FormatBool(r.Assessment.Usable),
			r.Criteria,
			r.PredictedCrash.Format("2006-01-02"),
			strconv.Itoa(r.DaysToCrash),
			strconv.Itoa(r.TotalTrials),
			strconv.Itoa(r.PlausibleCount),
			r.BatchID,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export.exportCSV: row %s: %w", r.Symbol, err)
		}
	}

	w.Flush()
	return w.Error()
}

func (e *FileExporter) exportJSON(path string, results []domain.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export.exportJSON: create %q: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("export.exportJSON: encode: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
