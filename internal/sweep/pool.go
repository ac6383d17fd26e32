package sweep

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// workerPool runs backtest jobs on a fixed set of goroutines. Each job
// owns a fully isolated engine instance, so worker parallelism never
// shares mutable state between runs.
type workerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   atomic.Bool
	tasksDone atomic.Uint64
}

// newWorkerPool creates a pool with the specified number of workers,
// defaulting to runtime.NumCPU().
func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &workerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (p *workerPool) start() {
	if p.running.Swap(true) {
		return
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			task()
			p.tasksDone.Add(1)
		}
	}
}

// submit blocks until a worker accepts the task or the pool stops.
func (p *workerPool) submit(task func()) bool {
	if !p.running.Load() {
		return false
	}
	select {
	case p.taskQueue <- task:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// stop drains the queue and waits for all workers to finish.
func (p *workerPool) stop() {
	if !p.running.Swap(false) {
		return
	}
	close(p.taskQueue)
	p.wg.Wait()
	p.cancel()
}
