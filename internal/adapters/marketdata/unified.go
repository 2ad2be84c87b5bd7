package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/ports"
)

// Source es una fuente de datos concreta con nombre.
type Source interface {
	ports.SeriesProvider
	Name() string
}

// UnifiedProvider prueba las fuentes en orden de prioridad y devuelve la
// primera serie válida. Un fallo en una fuente (rate limit, símbolo no
// mapeado, API caída) pasa a la siguiente en vez de abortar el análisis.
type UnifiedProvider struct {
	sources []Source
}

// NewUnifiedProvider crea el provider con las fuentes en orden de prioridad.
func NewUnifiedProvider(sources ...Source) *UnifiedProvider {
	return &UnifiedProvider{sources: sources}
}

// FetchSeries implementa ports.SeriesProvider con fallback entre fuentes.
func (u *UnifiedProvider) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if len(u.sources) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("marketdata: no sources configured")
	}

	var errs []error
	for _, src := range u.sources {
		series, err := src.FetchSeries(ctx, symbol, start, end)
		if err != nil {
			slog.Debug("source failed, trying next",
				"source", src.Name(), "symbol", symbol, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if err := series.Validate(); err != nil {
			slog.Debug("source returned unusable series, trying next",
				"source", src.Name(), "symbol", symbol, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		slog.Debug("series fetched",
			"source", src.Name(), "symbol", symbol, "points", series.Len())
		return series, nil
	}
	return domain.PriceSeries{}, fmt.Errorf("marketdata: all sources failed for %s: %w", symbol, errors.Join(errs...))
}
