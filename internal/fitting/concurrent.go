package fitting

// concurrent.go — pool de workers para el fitting multi-arranque.
//
// Cada intento es independiente (sin estado mutable compartido), así que el
// reparto es trivial: un canal de guesses, N workers, un canal de candidatos.
// No se garantiza el orden de los resultados; ningún criterio de selección
// depende de él salvo el desempate first-seen, que solo aplica al modo
// secuencial determinista.

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// fitConcurrent reparte los guesses entre cfg.Workers workers.
// Si Workers <= 0 usa runtime.NumCPU().
func (f *Fitter) fitConcurrent(t, y []float64, b domain.Bounds, guesses []domain.Parameters) []domain.Candidate {
	workers := f.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(guesses) {
		workers = len(guesses)
	}

	workCh := make(chan domain.Parameters, len(guesses))
	resultCh := make(chan domain.Candidate, len(guesses))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range workCh {
				c, err := f.Fit(t, y, g, b)
				if err != nil {
					slog.Debug("fit trial failed", "initial", g.String(), "err", err)
					continue
				}
				resultCh <- c
			}
		}()
	}

	for _, g := range guesses {
		workCh <- g
	}
	close(workCh)

	wg.Wait()
	close(resultCh)

	out := make([]domain.Candidate, 0, len(guesses))
	for c := range resultCh {
		out = append(out, c)
	}
	return out
}
