package domain

import "time"

// AnalysisResult es el resultado completo de analizar un (símbolo, ventana):
// el candidato ganador bajo el criterio por defecto, los ganadores de cada
// criterio para comparación, el veredicto de calidad y la predicción de
// fecha de crash derivada de tc. Es lo que consumen notifier, storage y export.
type AnalysisResult struct {
	ID      int64  // asignado por storage al persistir
	BatchID string // identifica el run que produjo este resultado

	Symbol      string
	Source      string
	AnalyzedAt  time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time
	DataPoints  int
	WindowDays  int

	Best       Candidate
	Criteria   string               // criterio de selección usado para Best
	ByCriteria map[string]Candidate // ganador de cada criterio de selección

	Assessment     Assessment
	PredictedCrash time.Time
	DaysToCrash    int

	TotalTrials    int // intentos de fitting lanzados
	PlausibleCount int // candidatos que superaron el gate de plausibilidad
}

// Usable devuelve true si el resultado sirve como predicción.
func (r AnalysisResult) Usable() bool {
	return r.Assessment.Usable
}

// FittingFailure registra un análisis que no produjo ningún candidato usable,
// para estadísticas de fallos y para decidir reintentos.
type FittingFailure struct {
	Symbol      string
	BasisDate   time.Time
	WindowDays  int
	Reason      string
	TotalTrials int
	Plausible   int
	FailedAt    time.Time
}

// SummaryStats resume el contenido acumulado de la tabla de resultados:
// volumen, tasa de usables, distribución por calidad y estadísticos de R².
type SummaryStats struct {
	TotalAnalyses  int
	UniqueSymbols  int
	UsableAnalyses int
	LatestAnalysis time.Time
	QualityCounts  map[string]int
	AvgR2          float64
	MinR2          float64
	MaxR2          float64
}

// UsableRate devuelve la fracción de resultados usables; 0 sin resultados.
func (s SummaryStats) UsableRate() float64 {
	if s.TotalAnalyses == 0 {
		return 0
	}
	return float64(s.UsableAnalyses) / float64(s.TotalAnalyses)
}
