package analyzer_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/analyzer"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/fitting"
)

// bubbleTruth son los parámetros de la burbuja sintética de los tests.
var bubbleTruth = domain.Parameters{
	Tc: 1.2, Beta: 0.33, Omega: 6.36, Phi: 0, A: 5, B: -1, C: 0.1,
}

// stubProvider sirve una serie sintética LPPL para cualquier símbolo.
type stubProvider struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (p *stubProvider) FetchSeries(_ context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return domain.PriceSeries{}, p.err
	}

	n := 300
	points := make([]domain.PricePoint, n)
	days := int(end.Sub(start).Hours() / 24)
	for i := range points {
		t := float64(i) / float64(n-1)
		points[i] = domain.PricePoint{
			Date:  start.AddDate(0, 0, i*days/n),
			Close: math.Exp(domain.LPPL(t, bubbleTruth)),
		}
	}
	// Fechas estrictamente crecientes aunque days/n trunque
	for i := 1; i < n; i++ {
		if !points[i].Date.After(points[i-1].Date) {
			points[i].Date = points[i-1].Date.Add(24 * time.Hour)
		}
	}
	return domain.PriceSeries{Symbol: symbol, Source: "stub", Points: points}, nil
}

// memoryStorage implementa ports.Storage en memoria.
type memoryStorage struct {
	mu       sync.Mutex
	results  []domain.AnalysisResult
	failures []domain.FittingFailure
	recent   map[string]bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{recent: make(map[string]bool)}
}

func (m *memoryStorage) SaveResult(_ context.Context, r domain.AnalysisResult) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return int64(len(m.results)), nil
}

func (m *memoryStorage) RecordFailure(_ context.Context, f domain.FittingFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, f)
	return nil
}

func (m *memoryStorage) HasRecent(_ context.Context, symbol string, _ time.Time, windowDays int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recent[fmt.Sprintf("%s/%d", symbol, windowDays)], nil
}

func (m *memoryStorage) SummaryStats(_ context.Context) (domain.SummaryStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := domain.SummaryStats{
		TotalAnalyses: len(m.results),
		QualityCounts: make(map[string]int),
	}
	for _, r := range m.results {
		stats.QualityCounts[r.Assessment.Quality.String()]++
		if r.Usable() {
			stats.UsableAnalyses++
		}
	}
	return stats, nil
}

func (m *memoryStorage) RecentResults(_ context.Context, symbol string, _ int) ([]domain.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AnalysisResult
	for _, r := range m.results {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out, nil
}

// recordingNotifier captura los resultados notificados.
type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]domain.AnalysisResult
}

func (n *recordingNotifier) Notify(_ context.Context, results []domain.AnalysisResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, results)
	return nil
}

func testConfig() analyzer.Config {
	cfg := analyzer.DefaultConfig()
	cfg.Symbols = []string{"^GSPC"}
	cfg.Windows = []int{365}
	cfg.Workers = 2
	cfg.Seed = 42
	cfg.RunOnceMode = true
	cfg.Fitting = fitting.Config{RandomTries: 10, R2Floor: 0.1}
	return cfg
}

func TestAnalyzer_RunOnce_ProducesUsableResult(t *testing.T) {
	store := newMemoryStorage()
	a := analyzer.New(testConfig(), &stubProvider{}, store, &recordingNotifier{}, nil, nil)

	results, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "^GSPC", r.Symbol)
	assert.Equal(t, "stub", r.Source)
	assert.Greater(t, r.Best.R2, 0.9)
	assert.Greater(t, r.Best.Params.Tc, 1.0)
	assert.InDelta(t, bubbleTruth.Beta, r.Best.Params.Beta, 0.05)
	assert.True(t, r.Usable())
	assert.NotEmpty(t, r.BatchID)
	assert.Greater(t, r.PlausibleCount, 0)
	assert.False(t, r.PredictedCrash.IsZero())
	assert.True(t, r.PredictedCrash.After(r.PeriodEnd))

	// Persistido con su id
	require.Len(t, store.results, 1)
	assert.Greater(t, r.ID, int64(0))

	// Todas las heurísticas eligieron algún ganador
	assert.NotEmpty(t, r.ByCriteria)
	assert.Contains(t, r.ByCriteria, r.Criteria)
}

func TestAnalyzer_RunOnce_Deterministic(t *testing.T) {
	ctx := context.Background()

	first, err := analyzer.New(testConfig(), &stubProvider{}, nil, &recordingNotifier{}, nil, nil).RunOnce(ctx)
	require.NoError(t, err)
	second, err := analyzer.New(testConfig(), &stubProvider{}, nil, &recordingNotifier{}, nil, nil).RunOnce(ctx)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	// Con semilla fija y la misma fecha base, el ganador es idéntico
	assert.Equal(t, first[0].Best.Params, second[0].Best.Params)
	assert.InDelta(t, first[0].Best.R2, second[0].Best.R2, 1e-12)
}

func TestAnalyzer_RunOnce_MultipleWindows(t *testing.T) {
	cfg := testConfig()
	cfg.Windows = []int{365, 730}

	results, err := analyzer.New(cfg, &stubProvider{}, nil, &recordingNotifier{}, nil, nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAnalyzer_Dedup_SkipsAnalyzedPairs(t *testing.T) {
	store := newMemoryStorage()
	store.recent["^GSPC/365"] = true

	provider := &stubProvider{}
	results, err := analyzer.New(testConfig(), provider, store, &recordingNotifier{}, nil, nil).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Equal(t, 0, provider.calls)
}

func TestAnalyzer_FetchFailure_Recorded(t *testing.T) {
	store := newMemoryStorage()
	provider := &stubProvider{err: fmt.Errorf("source down")}

	results, err := analyzer.New(testConfig(), provider, store, &recordingNotifier{}, nil, nil).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Empty(t, results)
	require.Len(t, store.failures, 1)
	assert.Equal(t, "^GSPC", store.failures[0].Symbol)
	assert.Contains(t, store.failures[0].Reason, "data fetch")
}

func TestAnalyzer_NoSymbols(t *testing.T) {
	cfg := testConfig()
	cfg.Symbols = nil

	_, err := analyzer.New(cfg, &stubProvider{}, nil, &recordingNotifier{}, nil, nil).RunOnce(context.Background())
	assert.Error(t, err)
}
