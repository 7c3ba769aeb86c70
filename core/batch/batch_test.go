package batch_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"batch-engine/core/batch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want int
	}{
		{"Empty", 0, 10, 0},
		{"Exact", 100, 50, 2},
		{"Remainder", 101, 50, 3},
		{"Single", 3, 50, 1},
		{"SizeOne", 5, 1, 5},
		{"ZeroSize", 7, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.n)
			for i := range items {
				items[i] = i
			}

			chunks := batch.Chunk(items, tt.size)
			assert.Len(t, chunks, tt.want)

			seen := make(map[int]bool)
			for _, c := range chunks {
				if tt.size > 0 {
					assert.LessOrEqual(t, len(c), tt.size)
				}
				for _, v := range c {
					assert.False(t, seen[v], "duplicate %d", v)
					seen[v] = true
				}
			}
			assert.Len(t, seen, tt.n)
		})
	}
}

func TestConfig_Normalize(t *testing.T) {
	c := batch.Config{}.Normalize(50, 100, 5)
	assert.Equal(t, 50, c.BatchSize)
	assert.Equal(t, 5, c.Concurrency)

	c = batch.Config{BatchSize: 500, Concurrency: 2}.Normalize(50, 100, 5)
	assert.Equal(t, 100, c.BatchSize)
	assert.Equal(t, 2, c.Concurrency)

	assert.Nil(t, c.Limiter())
	c.RequestsPerSecond = 10
	assert.NotNil(t, c.Limiter())
}

func TestRun_OrderAndBound(t *testing.T) {
	chunks := batch.Chunk([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1)

	var inFlight, peak int32
	outcomes, err := batch.Run(context.Background(), chunks, batch.RunOptions{Concurrency: 3},
		func(ctx context.Context, i int, chunk []int) (int, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return chunk[0] * 10, nil
		})

	require.NoError(t, err)
	require.Len(t, outcomes, 10)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, (i+1)*10, o.Result)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestRun_TolerantFailures(t *testing.T) {
	chunks := batch.Chunk([]string{"a", "b", "c"}, 1)
	boom := errors.New("boom")

	outcomes, err := batch.Run(context.Background(), chunks, batch.RunOptions{Concurrency: 2},
		func(ctx context.Context, i int, chunk []string) (string, error) {
			if chunk[0] == "b" {
				return "", boom
			}
			return chunk[0], nil
		})

	require.NoError(t, err)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, boom)
	assert.Equal(t, "c", outcomes[2].Result)
}

func TestRun_FailFast(t *testing.T) {
	chunks := batch.Chunk([]int{1, 2, 3, 4}, 1)
	boom := errors.New("boom")

	outcomes, err := batch.Run(context.Background(), chunks, batch.RunOptions{Concurrency: 1, FailFast: true},
		func(ctx context.Context, i int, chunk []int) (int, error) {
			if i == 1 {
				return 0, boom
			}
			return chunk[0], nil
		})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, boom)
	assert.ErrorIs(t, outcomes[2].Err, context.Canceled)
	assert.ErrorIs(t, outcomes[3].Err, context.Canceled)
}

func TestRun_Empty(t *testing.T) {
	outcomes, err := batch.Run(context.Background(), [][]int{}, batch.RunOptions{},
		func(context.Context, int, []int) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
