package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

const (
	defaultFREDBase = "https://api.stlouisfed.org/fred"

	// FRED permite 120 requests/minuto → 2/s.
	fredRatePerSec = 2
)

// FREDClient obtiene series de la API de FRED (St. Louis Fed).
type FREDClient struct {
	client *httpClient
	base   string
	apiKey string
}

// NewFREDClient crea un cliente de FRED. Si base está vacío usa la API
// de producción. apiKey es obligatoria; FRED rechaza requests sin ella.
func NewFREDClient(base, apiKey string) *FREDClient {
	if base == "" {
		base = defaultFREDBase
	}
	return &FREDClient{
		client: newHTTPClient(rate.NewLimiter(fredRatePerSec, 4)),
		base:   base,
		apiKey: apiKey,
	}
}

// Name identifica la fuente en resultados y logs.
func (f *FREDClient) Name() string { return "fred" }

type fredObservationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// FetchSeries obtiene observaciones diarias de la serie dada.
// FRED marca los días sin dato con el valor ".", que se descarta.
func (f *FREDClient) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if f.apiKey == "" {
		return domain.PriceSeries{}, fmt.Errorf("fred: missing API key")
	}
	seriesID, ok := lookupSymbol(symbol, f.Name())
	if !ok {
		return domain.PriceSeries{}, fmt.Errorf("fred: symbol %q not mapped for this source", symbol)
	}

	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", f.apiKey)
	q.Set("file_type", "json")
	q.Set("observation_start", start.Format("2006-01-02"))
	q.Set("observation_end", end.Format("2006-01-02"))

	var resp fredObservationsResponse
	u := f.base + "/series/observations?" + q.Encode()
	if err := f.client.getJSON(ctx, u, nil, &resp); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("fred: fetch %s: %w", seriesID, err)
	}
	if resp.ErrorCode != 0 {
		return domain.PriceSeries{}, fmt.Errorf("fred: API error %d: %s", resp.ErrorCode, resp.ErrorMessage)
	}

	points := make([]domain.PricePoint, 0, len(resp.Observations))
	for _, obs := range resp.Observations {
		if obs.Value == "." {
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		var price float64
		if _, err := fmt.Sscanf(obs.Value, "%f", &price); err != nil {
			continue
		}
		if price <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Close: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return domain.PriceSeries{Symbol: symbol, Source: f.Name(), Points: points}, nil
}
