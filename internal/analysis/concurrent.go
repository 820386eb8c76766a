package analysis

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
)

// BatchResult empareja una request del lote con su resultado.
type BatchResult struct {
	Request Request
	Outcome Outcome
	Err     error
}

// ExecuteBatch ejecuta cada request en un worker pool. Los resultados mantienen el
// orden de reqs. Si workers <= 0 usa runtime.NumCPU() * 2.
func (f *Facade) ExecuteBatch(ctx context.Context, reqs []Request, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	workers = min(workers, max(1, len(reqs)))

	type work struct {
		idx int
		req Request
	}

	workCh := make(chan work, len(reqs))
	results := make([]BatchResult, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				res := BatchResult{Request: w.req}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else {
					res.Outcome, res.Err = f.Execute(ctx, w.req)
				}
				// cada worker escribe un índice distinto
				results[w.idx] = res
			}
		}()
	}

	for i, req := range reqs {
		workCh <- work{idx: i, req: req}
	}
	close(workCh)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	slog.Debug("batch analysis complete",
		"requests", len(reqs),
		"failed", failed,
		"workers", workers,
	)
	return results
}
