// Package parallel runs independent jobs, such as cross-validation folds,
// on a bounded number of goroutines.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Workers resolves an n_jobs style value: values < 0 mean all CPUs, 0 and
// 1 mean sequential.
func Workers(nJobs int) int {
	switch {
	case nJobs < 0:
		return runtime.NumCPU()
	case nJobs == 0:
		return 1
	default:
		return nJobs
	}
}

// ForEach calls fn(i) for every i in [0, items) using at most Workers(nJobs)
// goroutines. With a single worker the calls run in order on the caller's
// goroutine. The first error is returned after every started job finished.
func ForEach(items, nJobs int, fn func(i int) error) error {
	if items <= 0 {
		return nil
	}
	workers := Workers(nJobs)
	if workers == 1 {
		for i := 0; i < items; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < items; i++ {
		i := i
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}

// Parallelize divides items into contiguous ranges, one per CPU core, and
// executes fn for each range (start, end) in parallel.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold falls back to a single sequential call when items
// does not exceed threshold.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
