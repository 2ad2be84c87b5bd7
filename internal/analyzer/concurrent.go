package analyzer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oshw-tokyo/sornette-prediction-sub000/internal/domain"
)

// task es una unidad de trabajo: un símbolo con una ventana concreta.
type task struct {
	symbol string
	window int
}

// runTasks reparte las tareas en un pool de workers. Cada tarea corre con
// su propio timeout; un fallo en una tarea no detiene a las demás.
func (a *Analyzer) runTasks(ctx context.Context, tasks []task, basis time.Time, batchID string) []domain.AnalysisResult {
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan task, len(tasks))
	resultCh := make(chan domain.AnalysisResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for tk := range taskCh {
				result, err := a.runTask(ctx, tk, basis, batchID)
				if err != nil {
					slog.Warn("task failed",
						"worker", id,
						"symbol", tk.symbol,
						"window", tk.window,
						"err", err,
					)
					continue
				}
				resultCh <- result
			}
		}(i)
	}

	for _, tk := range tasks {
		select {
		case <-ctx.Done():
		case taskCh <- tk:
		}
	}
	close(taskCh)

	wg.Wait()
	close(resultCh)

	results := make([]domain.AnalysisResult, 0, len(tasks))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

// runTask ejecuta una tarea con su propio timeout si está configurado.
func (a *Analyzer) runTask(ctx context.Context, tk task, basis time.Time, batchID string) (domain.AnalysisResult, error) {
	if a.cfg.TaskTimeout > 0 {
		taskCtx, cancel := context.WithTimeout(ctx, a.cfg.TaskTimeout)
		defer cancel()
		ctx = taskCtx
	}
	return a.AnalyzeOne(ctx, tk.symbol, tk.window, basis, batchID)
}
