// Package workpool runs a bounded set of goroutines over a stream of jobs,
// used by the search driver to execute candidate trials in parallel and by
// the filter heuristics to score scanlines row-stripe by row-stripe.
package workpool

import (
	"runtime"
	"sync"
)

// Run executes fn once for every index in [0, n), using at most workers
// goroutines. If workers <= 0, runtime.NumCPU() is used. Run blocks until
// every call to fn has returned.
func Run(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// RunStripes partitions [0, n) into contiguous stripes, one per worker
// (at most workers, bounded by runtime.NumCPU() when workers <= 0), and
// runs fn(start, end) for each stripe concurrently. This mirrors
// row-range parallelism over a fixed image height.
func RunStripes(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	per := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * per
		if start >= n {
			break
		}
		end := start + per
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// Pool runs a fixed number of long-lived worker goroutines pulling jobs
// from a channel. The search driver does not use it; its trials run
// through Run.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

// NewPool starts workers goroutines, each looping on the internal job
// channel until Close is called.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	p := &Pool{jobs: make(chan func())}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Submit enqueues a job. It blocks until a worker is free to accept it.
func (p *Pool) Submit(job func()) {
	p.jobs <- job
}

// Close stops accepting new jobs and waits for all workers to drain.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
