// Package sweep runs parameter sweeps as independent backtests in
// parallel. Parallelism lives strictly between runs, never inside one:
// every job gets its own engine, order book, ledger, and RNG.
package sweep

import (
	"context"
	"sync"

	"quantbt/internal/engine"
	"quantbt/internal/feed"
	"quantbt/internal/models"
)

// Job is one backtest in a sweep. Config and Strategy must not be
// shared with other jobs.
type Job struct {
	Name     string
	Config   engine.Config
	Strategy engine.Strategy
	Events   []models.MarketEvent
}

// Outcome pairs a job with its result. Err is set when construction or
// the run itself failed.
type Outcome struct {
	Name   string
	Result *engine.Result
	Err    error
}

// Run executes all jobs using the given number of workers and returns
// outcomes in job order.
func Run(ctx context.Context, jobs []Job, workers int) []Outcome {
	outcomes := make([]Outcome, len(jobs))

	pool := newWorkerPool(workers)
	pool.start()

	var wg sync.WaitGroup
	for i := range jobs {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			outcomes[i] = runOne(ctx, jobs[i])
		}
		if !pool.submit(task) {
			wg.Done()
			outcomes[i] = Outcome{Name: jobs[i].Name, Err: ctx.Err()}
		}
	}
	wg.Wait()
	pool.stop()

	return outcomes
}

func runOne(ctx context.Context, job Job) Outcome {
	eng, err := engine.New(job.Config)
	if err != nil {
		return Outcome{Name: job.Name, Err: err}
	}
	result, err := eng.Run(ctx, feed.NewSliceSource(job.Events...), job.Strategy)
	return Outcome{Name: job.Name, Result: result, Err: err}
}
