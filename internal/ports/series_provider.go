package ports

import (
	"context"
	"time"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// SeriesProvider obtiene series de cierres diarios de un proveedor de datos.
type SeriesProvider interface {
	// FetchSeries devuelve la serie de cierres del símbolo lógico dado en el
	// rango [start, end]. El provider resuelve el símbolo a su identificador
	// nativo (serie FRED, ticker, etc.).
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}
