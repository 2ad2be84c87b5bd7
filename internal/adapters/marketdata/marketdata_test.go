package marketdata_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/adapters/marketdata"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

var (
	testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
)

// --- FRED ---

func TestFREDClient_FetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/observations", r.URL.Path)
		assert.Equal(t, "SP500", r.URL.Query().Get("series_id"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		fmt.Fprint(w, `{"observations":[
			{"date":"2024-01-02","value":"4742.83"},
			{"date":"2024-01-03","value":"."},
			{"date":"2024-01-04","value":"4688.68"}
		]}`)
	}))
	defer srv.Close()

	client := marketdata.NewFREDClient(srv.URL, "test-key")
	series, err := client.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	require.NoError(t, err)

	// El día sin dato (".") se descarta
	require.Equal(t, 2, series.Len())
	assert.Equal(t, "^GSPC", series.Symbol)
	assert.Equal(t, "fred", series.Source)
	assert.InDelta(t, 4742.83, series.Points[0].Close, 0.001)
	assert.InDelta(t, 4688.68, series.Points[1].Close, 0.001)
}

func TestFREDClient_MissingKey(t *testing.T) {
	client := marketdata.NewFREDClient("http://unused", "")
	_, err := client.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	assert.ErrorContains(t, err, "missing API key")
}

func TestFREDClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error_code":400,"error_message":"Bad Request.  Invalid value for variable series_id."}`)
	}))
	defer srv.Close()

	client := marketdata.NewFREDClient(srv.URL, "test-key")
	_, err := client.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	assert.ErrorContains(t, err, "API error 400")
}

// --- Alpha Vantage ---

func TestAlphaVantageClient_FetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "TIME_SERIES_DAILY_ADJUSTED", r.URL.Query().Get("function"))
		assert.Equal(t, "SPY", r.URL.Query().Get("symbol"))

		fmt.Fprint(w, `{"Time Series (Daily)":{
			"2024-01-02":{"4. close":"472.65","5. adjusted close":"470.10"},
			"2024-01-03":{"4. close":"468.79","5. adjusted close":"466.27"},
			"2023-12-01":{"4. close":"459.10","5. adjusted close":"456.63"}
		}}`)
	}))
	defer srv.Close()

	client := marketdata.NewAlphaVantageClient(srv.URL, "test-key")
	series, err := client.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	require.NoError(t, err)

	// Ordenada por fecha y recortada al rango pedido
	require.Equal(t, 2, series.Len())
	assert.Equal(t, "alpha_vantage", series.Source)
	assert.True(t, series.Points[0].Date.Before(series.Points[1].Date))
	assert.InDelta(t, 470.10, series.Points[0].Close, 0.001) // adjusted close
}

func TestAlphaVantageClient_RateLimitNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Alpha Vantage devuelve 200 con un campo "Note" al superar el límite
		fmt.Fprint(w, `{"Note":"Thank you for using Alpha Vantage! Our standard API rate limit is 5 requests per minute."}`)
	}))
	defer srv.Close()

	client := marketdata.NewAlphaVantageClient(srv.URL, "test-key")
	_, err := client.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	assert.ErrorContains(t, err, "rate limited")
}

// --- Yahoo ---

func TestYahooClient_FetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/")
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		fmt.Fprint(w, `{"chart":{"result":[{
			"timestamp":[1704153600,1704240000,1704326400],
			"indicators":{"quote":[{"close":[4742.83,null,4688.68]}]}
		}],"error":null}}`)
	}))
	defer srv.Close()

	client := marketdata.NewYahooClient(srv.URL)
	series, err := client.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	require.NoError(t, err)

	// Los null se descartan
	require.Equal(t, 2, series.Len())
	assert.Equal(t, "yahoo", series.Source)
}

func TestYahooClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	client := marketdata.NewYahooClient(srv.URL)
	_, err := client.FetchSeries(context.Background(), "NOPE", testStart, testEnd)
	assert.ErrorContains(t, err, "Not Found")
}

// --- UnifiedProvider ---

type stubSource struct {
	name   string
	series domain.PriceSeries
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchSeries(_ context.Context, _ string, _, _ time.Time) (domain.PriceSeries, error) {
	s.calls++
	return s.series, s.err
}

func validStubSeries(source string) domain.PriceSeries {
	points := make([]domain.PricePoint, domain.MinSeriesPoints)
	for i := range points {
		points[i] = domain.PricePoint{
			Date:  testStart.AddDate(0, 0, i),
			Close: 100 + float64(i),
		}
	}
	return domain.PriceSeries{Symbol: "^GSPC", Source: source, Points: points}
}

func TestUnifiedProvider_FirstSourceWins(t *testing.T) {
	primary := &stubSource{name: "fred", series: validStubSeries("fred")}
	fallback := &stubSource{name: "yahoo", series: validStubSeries("yahoo")}

	p := marketdata.NewUnifiedProvider(primary, fallback)
	series, err := p.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	require.NoError(t, err)

	assert.Equal(t, "fred", series.Source)
	assert.Equal(t, 0, fallback.calls)
}

func TestUnifiedProvider_FallsBackOnError(t *testing.T) {
	primary := &stubSource{name: "fred", err: fmt.Errorf("rate limited")}
	fallback := &stubSource{name: "yahoo", series: validStubSeries("yahoo")}

	p := marketdata.NewUnifiedProvider(primary, fallback)
	series, err := p.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	require.NoError(t, err)

	assert.Equal(t, "yahoo", series.Source)
	assert.Equal(t, 1, primary.calls)
}

func TestUnifiedProvider_FallsBackOnUnusableSeries(t *testing.T) {
	// Serie demasiado corta: la primera fuente responde pero no sirve
	short := validStubSeries("fred")
	short.Points = short.Points[:5]
	primary := &stubSource{name: "fred", series: short}
	fallback := &stubSource{name: "yahoo", series: validStubSeries("yahoo")}

	p := marketdata.NewUnifiedProvider(primary, fallback)
	series, err := p.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", series.Source)
}

func TestUnifiedProvider_AllSourcesFail(t *testing.T) {
	a := &stubSource{name: "fred", err: fmt.Errorf("down")}
	b := &stubSource{name: "yahoo", err: fmt.Errorf("also down")}

	p := marketdata.NewUnifiedProvider(a, b)
	_, err := p.FetchSeries(context.Background(), "^GSPC", testStart, testEnd)
	require.Error(t, err)
	assert.ErrorContains(t, err, "all sources failed")
}
