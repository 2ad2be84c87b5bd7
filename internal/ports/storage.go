package ports

import (
	"context"
	"time"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// Storage persiste resultados de análisis y fallos de fitting.
type Storage interface {
	// SaveResult inserta un resultado y devuelve su ID asignado.
	SaveResult(ctx context.Context, result domain.AnalysisResult) (int64, error)

	// RecordFailure registra un análisis fallido, acumulando el contador de
	// reintentos si ya existía un fallo para el mismo (símbolo, fecha, ventana).
	RecordFailure(ctx context.Context, failure domain.FittingFailure) error

	// HasRecent devuelve true si ya existe un resultado para el
	// (símbolo, ventana) con fecha base igual al día dado — el chequeo de
	// deduplicación que evita repetir análisis.
	HasRecent(ctx context.Context, symbol string, basisDate time.Time, windowDays int) (bool, error)

	// RecentResults devuelve los últimos resultados del símbolo, más
	// recientes primero.
	RecentResults(ctx context.Context, symbol string, limit int) ([]domain.AnalysisResult, error)

	// SummaryStats devuelve las estadísticas agregadas de todos los
	// resultados almacenados.
	SummaryStats(ctx context.Context) (domain.SummaryStats, error)
}
