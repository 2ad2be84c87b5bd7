package ports

import (
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// ChartRenderer dibuja la serie observada con la curva LPPL ajustada.
type ChartRenderer interface {
	// Render guarda un chart PNG del resultado sobre la serie dada y
	// devuelve la ruta del fichero escrito.
	Render(series domain.PriceSeries, result domain.AnalysisResult) (string, error)
}

// Exporter vuelca resultados a ficheros planos (CSV/JSON).
type Exporter interface {
	// Export escribe los resultados del batch y devuelve las rutas escritas.
	Export(results []domain.AnalysisResult) ([]string, error)
}
