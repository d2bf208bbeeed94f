package scrape

import (
	"context"
	"sync"
	"time"
)

type Task func(ctx context.Context) error

type Result struct {
	Err error
}

// WorkerPool runs submitted tasks on a fixed set of workers, optionally gated
// by a minimum interval between task starts. A single-worker pool with an
// interval is how scrapers pace calls to shared public services.
type WorkerPool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	ticker  *time.Ticker
}

func NewWorkerPool(workers, buffer int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &WorkerPool{
		workers: workers,
		tasks:   make(chan Task, buffer),
	}
}

// SetMinInterval spaces out task starts across all workers. Call before Run.
func (p *WorkerPool) SetMinInterval(d time.Duration) {
	if p == nil || d <= 0 {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	p.ticker = time.NewTicker(d)
}

func (p *WorkerPool) Submit(t Task) {
	if p == nil || t == nil {
		return
	}
	p.tasks <- t
}

func (p *WorkerPool) Close() {
	if p == nil {
		return
	}
	close(p.tasks)
}

func (p *WorkerPool) Run(ctx context.Context) <-chan Result {
	out := make(chan Result, p.workers*64)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					if p.ticker != nil {
						select {
						case <-ctx.Done():
							return
						case <-p.ticker.C:
						}
					}
					err := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		if p.ticker != nil {
			p.ticker.Stop()
		}
		close(out)
	}()

	return out
}
