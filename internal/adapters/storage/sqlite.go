package storage

// sqlite.go — persistencia de resultados de análisis.
//
// Estrategia:
//   - `analysis_results`: una fila por fit ganador, con los 7 parámetros,
//     métricas de bondad, evaluación de calidad y fecha de crash predicha.
//   - `fitting_failures`: una fila por (símbolo, fecha base, ventana) fallida,
//     con UPSERT que incrementa retry_count. Permite reintentar sin
//     machacar el histórico de fallos.
//   - Prune automático al arrancar: resultados > 90d, fallos > 30d.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por análisis completado
CREATE TABLE IF NOT EXISTS analysis_results (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id             TEXT     NOT NULL,
    symbol               TEXT     NOT NULL,
    source               TEXT     NOT NULL DEFAULT '',
    analyzed_at          DATETIME NOT NULL,
    period_start         DATETIME NOT NULL,
    period_end           DATETIME NOT NULL,
    data_points          INTEGER  NOT NULL DEFAULT 0,
    window_days          INTEGER  NOT NULL DEFAULT 0,
    tc                   REAL     NOT NULL,
    beta                 REAL     NOT NULL,
    omega                REAL     NOT NULL,
    phi                  REAL     NOT NULL,
    a                    REAL     NOT NULL,
    b                    REAL     NOT NULL,
    c                    REAL     NOT NULL,
    r_squared            REAL     NOT NULL DEFAULT 0,
    rmse                 REAL     NOT NULL DEFAULT 0,
    quality              TEXT     NOT NULL DEFAULT 'failed',
    confidence           REAL     NOT NULL DEFAULT 0,
    usable               INTEGER  NOT NULL DEFAULT 0,
    issues               TEXT     NOT NULL DEFAULT '',
    selection_criteria   TEXT     NOT NULL DEFAULT '',
    predicted_crash_date DATETIME,
    days_to_crash        INTEGER  NOT NULL DEFAULT 0,
    total_trials         INTEGER  NOT NULL DEFAULT 0,
    plausible_count      INTEGER  NOT NULL DEFAULT 0
);

-- Una fila por (símbolo, fecha base, ventana) que no produjo candidatos
CREATE TABLE IF NOT EXISTS fitting_failures (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol       TEXT     NOT NULL,
    basis_date   DATE     NOT NULL,
    window_days  INTEGER  NOT NULL,
    reason       TEXT     NOT NULL DEFAULT '',
    total_trials INTEGER  NOT NULL DEFAULT 0,
    plausible    INTEGER  NOT NULL DEFAULT 0,
    retry_count  INTEGER  NOT NULL DEFAULT 0,
    failed_at    DATETIME NOT NULL,
    UNIQUE(symbol, basis_date, window_days)
);

CREATE INDEX IF NOT EXISTS idx_results_symbol ON analysis_results(symbol, window_days, analyzed_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_batch  ON analysis_results(batch_id);
CREATE INDEX IF NOT EXISTS idx_results_at     ON analysis_results(analyzed_at DESC);
CREATE INDEX IF NOT EXISTS idx_failures_at    ON fitting_failures(failed_at DESC);
`

const (
	retentionResults  = 90 * 24 * time.Hour
	retentionFailures = 30 * 24 * time.Hour
)

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveResult inserta el resultado y devuelve su id.
func (s *SQLiteStorage) SaveResult(ctx context.Context, r domain.AnalysisResult) (int64, error) {
	var crash *time.Time
	if !r.PredictedCrash.IsZero() {
		t := r.PredictedCrash.UTC()
		crash = &t
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_results
			(batch_id, symbol, source, analyzed_at, period_start, period_end,
			 data_points, window_days, tc, beta, omega, phi, a, b, c,
			 r_squared, rmse, quality, confidence, usable, issues,
			 selection_criteria, predicted_crash_date, days_to_crash,
			 total_trials, plausible_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.BatchID,
		r.Symbol,
		r.Source,
		r.AnalyzedAt.UTC(),
		r.PeriodStart.UTC(),
		r.PeriodEnd.UTC(),
		r.DataPoints,
		r.WindowDays,
		r.Best.Params.Tc,
		r.Best.Params.Beta,
		r.Best.Params.Omega,
		r.Best.Params.Phi,
		r.Best.Params.A,
		r.Best.Params.B,
		r.Best.Params.C,
		r.Best.R2,
		r.Best.RMSE,
		r.Assessment.Quality.String(),
		r.Assessment.Confidence,
		boolToInt(r.Assessment.Usable),
		strings.Join(r.Assessment.Issues, "; "),
		r.Criteria,
		crash,
		r.DaysToCrash,
		r.TotalTrials,
		r.PlausibleCount,
	)
	if err != nil {
		return 0, fmt.Errorf("storage.SaveResult: insert %s: %w", r.Symbol, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.SaveResult: last id: %w", err)
	}
	return id, nil
}

// RecordFailure registra un fallo de fitting; los reintentos sobre la misma
// (símbolo, fecha base, ventana) incrementan retry_count.
func (s *SQLiteStorage) RecordFailure(ctx context.Context, f domain.FittingFailure) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fitting_failures
			(symbol, basis_date, window_days, reason, total_trials, plausible, retry_count, failed_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(symbol, basis_date, window_days) DO UPDATE SET
			reason       = excluded.reason,
			total_trials = excluded.total_trials,
			plausible    = excluded.plausible,
			retry_count  = retry_count + 1,
			failed_at    = excluded.failed_at
	`,
		f.Symbol,
		f.BasisDate.UTC().Format("2006-01-02"),
		f.WindowDays,
		f.Reason,
		f.TotalTrials,
		f.Plausible,
		f.FailedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordFailure: upsert %s: %w", f.Symbol, err)
	}
	return nil
}

// HasRecent indica si ya existe un resultado para (símbolo, ventana) con
// analyzed_at en el mismo día que basisDate. Es la base de la deduplicación.
func (s *SQLiteStorage) HasRecent(ctx context.Context, symbol string, basisDate time.Time, windowDays int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM analysis_results
		WHERE symbol = ? AND window_days = ? AND DATE(analyzed_at) = ?
	`, symbol, windowDays, basisDate.UTC().Format("2006-01-02")).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("storage.HasRecent: query %s: %w", symbol, err)
	}
	return count > 0, nil
}

// RecentResults devuelve los últimos resultados del símbolo, más recientes primero.
func (s *SQLiteStorage) RecentResults(ctx context.Context, symbol string, limit int) ([]domain.AnalysisResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, symbol, source, analyzed_at, period_start, period_end,
		       data_points, window_days, tc, beta, omega, phi, a, b, c,
		       r_squared, rmse, quality, confidence, usable, issues,
		       selection_criteria, predicted_crash_date, days_to_crash,
		       total_trials, plausible_count
		FROM analysis_results
		WHERE symbol = ?
		ORDER BY analyzed_at DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentResults: query %s: %w", symbol, err)
	}
	defer rows.Close()

	var results []domain.AnalysisResult
	for rows.Next() {
		var r domain.AnalysisResult
		var quality, issues string
		var usable int
		var crash sql.NullTime

		if err := rows.Scan(
			&r.ID,
			&r.BatchID,
			&r.Symbol,
			&r.Source,
			&r.AnalyzedAt,
			&r.PeriodStart,
			&r.PeriodEnd,
			&r.DataPoints,
			&r.WindowDays,
			&r.Best.Params.Tc,
			&r.Best.Params.Beta,
			&r.Best.Params.Omega,
			&r.Best.Params.Phi,
			&r.Best.Params.A,
			&r.Best.Params.B,
			&r.Best.Params.C,
			&r.Best.R2,
			&r.Best.RMSE,
			&quality,
			&r.Assessment.Confidence,
			&usable,
			&issues,
			&r.Criteria,
			&crash,
			&r.DaysToCrash,
			&r.TotalTrials,
			&r.PlausibleCount,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentResults: scan row: %w", err)
		}

		r.Assessment.Quality = domain.QualityFromString(quality)
		r.Assessment.Usable = usable == 1
		if issues != "" {
			r.Assessment.Issues = strings.Split(issues, "; ")
		}
		if crash.Valid {
			r.PredictedCrash = crash.Time
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// SummaryStats agrega el contenido completo de la tabla de resultados.
func (s *SQLiteStorage) SummaryStats(ctx context.Context) (domain.SummaryStats, error) {
	stats := domain.SummaryStats{QualityCounts: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT symbol), COALESCE(SUM(usable), 0),
		       COALESCE(AVG(r_squared), 0), COALESCE(MIN(r_squared), 0),
		       COALESCE(MAX(r_squared), 0)
		FROM analysis_results
	`).Scan(&stats.TotalAnalyses, &stats.UniqueSymbols, &stats.UsableAnalyses,
		&stats.AvgR2, &stats.MinR2, &stats.MaxR2)
	if err != nil {
		return domain.SummaryStats{}, fmt.Errorf("storage.SummaryStats: totals: %w", err)
	}

	// MAX(analyzed_at) perdería el decltype DATETIME del driver; se
	// selecciona la columna directamente.
	var latest time.Time
	err = s.db.QueryRowContext(ctx, `
		SELECT analyzed_at FROM analysis_results ORDER BY analyzed_at DESC LIMIT 1
	`).Scan(&latest)
	switch {
	case err == sql.ErrNoRows:
		// tabla vacía
	case err != nil:
		return domain.SummaryStats{}, fmt.Errorf("storage.SummaryStats: latest: %w", err)
	default:
		stats.LatestAnalysis = latest
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT quality, COUNT(*) FROM analysis_results GROUP BY quality
	`)
	if err != nil {
		return domain.SummaryStats{}, fmt.Errorf("storage.SummaryStats: quality distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var quality string
		var count int
		if err := rows.Scan(&quality, &count); err != nil {
			return domain.SummaryStats{}, fmt.Errorf("storage.SummaryStats: scan row: %w", err)
		}
		stats.QualityCounts[quality] = count
	}
	return stats, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoffResults := time.Now().UTC().Add(-retentionResults)
	cutoffFailures := time.Now().UTC().Add(-retentionFailures)
	s.db.ExecContext(ctx, `DELETE FROM analysis_results WHERE analyzed_at < ?`, cutoffResults)
	s.db.ExecContext(ctx, `DELETE FROM fitting_failures WHERE failed_at < ?`, cutoffFailures)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
