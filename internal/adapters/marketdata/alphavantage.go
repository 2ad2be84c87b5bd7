package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

const (
	defaultAlphaVantageBase = "https://www.alphavantage.co"

	// El tier gratuito permite 5 requests/minuto. Un token cada 12s
	// con burst 1 mantiene el cliente siempre por debajo del límite.
	alphaVantageInterval = 12 * time.Second
)

// AlphaVantageClient obtiene series diarias ajustadas de Alpha Vantage.
type AlphaVantageClient struct {
	client *httpClient
	base   string
	apiKey string
}

// NewAlphaVantageClient crea un cliente de Alpha Vantage.
func NewAlphaVantageClient(base, apiKey string) *AlphaVantageClient {
	if base == "" {
		base = defaultAlphaVantageBase
	}
	return &AlphaVantageClient{
		client: newHTTPClient(rate.NewLimiter(rate.Every(alphaVantageInterval), 1)),
		base:   base,
		apiKey: apiKey,
	}
}

// Name identifica la fuente en resultados y logs.
func (a *AlphaVantageClient) Name() string { return "alpha_vantage" }

type alphaVantageResponse struct {
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	ErrorMessage string                       `json:"Error Message"`
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
}

// FetchSeries obtiene la serie diaria ajustada completa y la recorta al
// rango pedido. Alpha Vantage señala el rate limit con un campo "Note"
// en un 200, no con un 429.
func (a *AlphaVantageClient) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if a.apiKey == "" {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage: missing API key")
	}
	tickerID, ok := lookupSymbol(symbol, a.Name())
	if !ok {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage: symbol %q not mapped for this source", symbol)
	}

	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	q.Set("symbol", tickerID)
	q.Set("outputsize", "full")
	q.Set("apikey", a.apiKey)

	var resp alphaVantageResponse
	u := a.base + "/query?" + q.Encode()
	if err := a.client.getJSON(ctx, u, nil, &resp); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage: fetch %s: %w", tickerID, err)
	}
	if resp.ErrorMessage != "" {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage: API error: %s", resp.ErrorMessage)
	}
	if resp.Note != "" || resp.Information != "" {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage: rate limited: %s%s", resp.Note, resp.Information)
	}
	if len(resp.TimeSeries) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage: empty time series for %s", tickerID)
	}

	points := make([]domain.PricePoint, 0, len(resp.TimeSeries))
	for dateStr, fields := range resp.TimeSeries {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		closeStr, ok := fields["5. adjusted close"]
		if !ok {
			closeStr = fields["4. close"]
		}
		price, err := strconv.ParseFloat(closeStr, 64)
		if err != nil || price <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Close: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return domain.PriceSeries{Symbol: symbol, Source: a.Name(), Points: points}, nil
}
