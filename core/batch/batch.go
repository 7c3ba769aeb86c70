package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Chunk splits items into consecutive slices of at most size elements.
// A non-positive size yields a single chunk.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// RunOptions controls Run.
type RunOptions struct {
	// Concurrency bounds the chunks in flight. Values below 1 mean 1.
	Concurrency int
	// Limiter, if set, is waited on before each chunk starts.
	Limiter *rate.Limiter
	// FailFast cancels the remaining chunks on the first error and returns it.
	FailFast bool
}

// Outcome is the result of one chunk.
type Outcome[R any] struct {
	Index  int
	Result R
	Err    error
}

// Run calls fn for every chunk and returns the outcomes in chunk order.
// Without FailFast the returned error is always nil and failures live in the outcomes.
func Run[T, R any](ctx context.Context, chunks [][]T, opts RunOptions, fn func(ctx context.Context, index int, chunk []T) (R, error)) ([]Outcome[R], error) {
	outcomes := make([]Outcome[R], len(chunks))
	if len(chunks) == 0 {
		return outcomes, nil
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, chunk := range chunks {
		outcomes[i].Index = i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(gctx); err != nil {
					outcomes[i].Err = err
					return failFast(opts, err)
				}
			}
			res, err := fn(gctx, i, chunk)
			outcomes[i].Result = res
			outcomes[i].Err = err
			return failFast(opts, err)
		})
	}

	err := g.Wait()
	return outcomes, err
}

func failFast(opts RunOptions, err error) error {
	if opts.FailFast {
		return err
	}
	return nil
}
