package ports

import (
	"context"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// Notifier presenta los resultados de un batch de análisis al usuario.
type Notifier interface {
	Notify(ctx context.Context, results []domain.AnalysisResult) error
}
