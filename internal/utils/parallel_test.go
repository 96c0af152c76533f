package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelForEachProcessesAllItems(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	var sum atomic.Int64

	errs := ParallelForEach(context.Background(), items, 3, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})

	require.Len(t, errs, len(items))
	assert.NoError(t, FirstError(errs))
	assert.Equal(t, int64(36), sum.Load())
}

func TestParallelForEachErrorsArePositional(t *testing.T) {
	t.Parallel()

	items := []string{"ok", "bad", "ok"}
	boom := errors.New("boom")

	errs := ParallelForEach(context.Background(), items, 2, func(_ context.Context, s string) error {
		if s == "bad" {
			return boom
		}
		return nil
	})

	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.NoError(t, errs[2])
	assert.ErrorIs(t, FirstError(errs), boom)
}

func TestParallelForEachBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 2
	var active, peak atomic.Int64
	var mu sync.Mutex

	items := make([]int, 16)
	ParallelForEach(context.Background(), items, workers, func(_ context.Context, _ int) error {
		n := active.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		active.Add(-1)
		return nil
	})

	assert.LessOrEqual(t, peak.Load(), int64(workers))
}

func TestParallelForEachStopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int64
	items := make([]int, 32)
	errs := ParallelForEach(ctx, items, 4, func(_ context.Context, _ int) error {
		calls.Add(1)
		return nil
	})

	require.Len(t, errs, len(items))
	assert.Less(t, calls.Load(), int64(len(items)))
}

func TestFirstErrorEmpty(t *testing.T) {
	t.Parallel()

	assert.NoError(t, FirstError(nil))
	assert.NoError(t, FirstError([]error{nil, nil}))
}
