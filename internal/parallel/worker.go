// Package parallel provides the bounded worker pool used for per-column work.
//
// Work items are fanned out to a fixed number of goroutines and results are
// fanned back in by index, so callers always see results in input order.
// Every call honours context cancellation and stops at the first error.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool bounds the number of goroutines used by Map
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool; numWorkers <= 0 means runtime.NumCPU()
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// Map executes worker over items in parallel while preserving order.
// It returns the first error any worker reports, or ctx.Err() when the
// context is cancelled before all items are processed.
func Map[T, R any](
	ctx context.Context,
	wp *WorkerPool,
	items []T,
	worker func(context.Context, int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Channel for input items with index
	itemCh := make(chan indexedItem[T])

	results := make([]R, len(items))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := wp.numWorkers
	if workers > len(items) {
		workers = len(items)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				if ctx.Err() != nil {
					return
				}
				result, err := worker(ctx, item.index, item.value)
				if err != nil {
					fail(err)
					return
				}
				// each index is written by exactly one worker
				results[item.index] = result
			}
		}()
	}

	// Send items to workers
	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}
