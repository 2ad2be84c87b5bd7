package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

const (
	defaultYahooBase = "https://query1.finance.yahoo.com"

	// Yahoo no publica un límite oficial; 1 request/2s es conservador.
	yahooInterval = 2 * time.Second
)

// YahooClient obtiene series del endpoint chart v8 de Yahoo Finance.
// No requiere API key, lo que lo hace útil como fallback.
type YahooClient struct {
	client *httpClient
	base   string
}

// NewYahooClient crea un cliente de Yahoo Finance.
func NewYahooClient(base string) *YahooClient {
	if base == "" {
		base = defaultYahooBase
	}
	return &YahooClient{
		client: newHTTPClient(rate.NewLimiter(rate.Every(yahooInterval), 1)),
		base:   base,
	}
}

// Name identifica la fuente en resultados y logs.
func (y *YahooClient) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries obtiene cierres diarios entre start y end. Yahoo devuelve
// null en los días sin cotización; esos puntos se descartan.
func (y *YahooClient) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	tickerID, ok := lookupSymbol(symbol, y.Name())
	if !ok {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: symbol %q not mapped for this source", symbol)
	}

	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")

	headers := map[string]string{
		// Yahoo rechaza requests sin User-Agent de navegador.
		"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	}

	var resp yahooChartResponse
	u := y.base + "/v8/finance/chart/" + url.PathEscape(tickerID) + "?" + q.Encode()
	if err := y.client.getJSON(ctx, u, headers, &resp); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: fetch %s: %w", tickerID, err)
	}
	if resp.Chart.Error != nil {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: API error %s: %s",
			resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: empty result for %s", tickerID)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: no quote data for %s", tickerID)
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]domain.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		date := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		points = append(points, domain.PricePoint{Date: date, Close: *closes[i]})
	}

	return domain.PriceSeries{Symbol: symbol, Source: y.Name(), Points: points}, nil
}
