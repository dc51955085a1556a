package parallel_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/paveg/tabula/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), parallel.NewWorkerPool(0).Size())
	assert.Equal(t, runtime.NumCPU(), parallel.NewWorkerPool(-1).Size())
	assert.Equal(t, 4, parallel.NewWorkerPool(4).Size())
}

func TestMapPreservesOrder(t *testing.T) {
	pool := parallel.NewWorkerPool(3)
	input := make([]int, 100)
	for i := range input {
		input[i] = i
	}

	results, err := parallel.Map(context.Background(), pool, input,
		func(_ context.Context, index int, value int) (int, error) {
			return value*value + index, nil
		})
	require.NoError(t, err)
	require.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, i*i+i, r)
	}
}

func TestMapEmpty(t *testing.T) {
	results, err := parallel.Map(context.Background(), parallel.NewWorkerPool(2), []int{},
		func(_ context.Context, _ int, v int) (int, error) { return v, nil })
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestMapStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int64

	input := make([]int, 1000)
	_, err := parallel.Map(context.Background(), parallel.NewWorkerPool(2), input,
		func(_ context.Context, index int, _ int) (int, error) {
			calls.Add(1)
			if index == 3 {
				return 0, boom
			}
			return index, nil
		})
	assert.ErrorIs(t, err, boom)
	assert.Less(t, calls.Load(), int64(1000))
}

func TestMapHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parallel.Map(ctx, parallel.NewWorkerPool(2), []int{1, 2, 3},
		func(_ context.Context, _ int, v int) (int, error) { return v, nil })
	assert.ErrorIs(t, err, context.Canceled)
}
