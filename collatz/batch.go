package collatz

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MaxBatch is the default maximal number of values in one ComputeRange call.
const MaxBatch = 1 << 20

// ErrRangeTooLarge is returned when a batch holds more values than allowed.
var ErrRangeTooLarge = errors.New("range too large")

// BatchOptions configures ComputeRange.
type BatchOptions struct {
	// Workers is the number of concurrent walks, defaults to GOMAXPROCS.
	Workers int
	// StepLimit is passed to ComputeLimit for every value.
	StepLimit int
	// MaxCount caps the number of values, defaults to MaxBatch.
	MaxCount int64
}

// ComputeRange computes the results for every m in [from, to] in parallel.
// Results are ordered by m. The first failure stops the batch and no
// results are returned.
func ComputeRange(ctx context.Context, from, to int64, opts BatchOptions) ([]*Result, error) {
	if from < 1 || to < from {
		return nil, fmt.Errorf("range [%d, %d]: %w", from, to, ErrInvalidInput)
	}

	maxCount := opts.MaxCount
	if maxCount <= 0 {
		maxCount = MaxBatch
	}
	// from >= 1 so this can't overflow
	count := to - from + 1
	if count > maxCount {
		return nil, fmt.Errorf("%d values, max %d: %w", count, maxCount, ErrRangeTooLarge)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range results {
		m := from + int64(i)
		idx := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := ComputeLimit(big.NewInt(m), opts.StepLimit)
			if err != nil {
				return err
			}
			results[idx] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// gctx is always done after Wait, only the caller's ctx matters here
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
