package estimators

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"runtime"

	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/domain/stats"
	"abverdict/internal"
	"abverdict/internal/errors"
	"abverdict/ports"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBootstrapIterations is used when the caller leaves Iterations at zero
	DefaultBootstrapIterations = 1000

	// iterations handed to one worker and one random stream
	bootstrapChunk  = 32
	bootstrapStream = "bootstrap"
)

// group codes of the precomputed resampling index
const (
	codeOther int8 = -1
	codeA     int8 = 0
	codeB     int8 = 1
)

// Bootstrap estimates P(mean(A) > mean(B)) by resampling the whole cleaned dataset
// jointly with replacement. Group sizes therefore vary between iterations, and an
// iteration that draws no record of one group is skipped and counted.
//
// Iterations are split into fixed chunks, each driven by its own stream derived from
// (seed, chunk index). Results land in per-iteration slots, so the output for a given
// seed is identical for any worker count.
type Bootstrap struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewBootstrap creates the estimator. A nil logger discards output.
func NewBootstrap(rng ports.RNGPort, logger *internal.Logger) *Bootstrap {
	if logger == nil {
		logger = internal.NewDiscardLogger()
	}
	return &Bootstrap{rng: rng, logger: logger}
}

// Estimate implements ports.BootstrapPort
func (b *Bootstrap) Estimate(ctx context.Context, ds *dataset.Dataset, groups dataset.GroupPair, opts ports.BootstrapOptions) (*stats.BootstrapResult, error) {
	iterations := opts.Iterations
	if iterations == 0 {
		iterations = DefaultBootstrapIterations
	}
	if iterations < 0 {
		return nil, errors.Validation("bootstrap iterations",
			fmt.Errorf("%w: iterations must be positive, got %d", core.ErrInvalidParameter, iterations))
	}
	if ds.Len() == 0 {
		return nil, errors.Validation("empty group", core.ErrEmptyGroup)
	}

	var seed int64
	if opts.Seed != nil {
		seed = *opts.Seed
	} else {
		seed = b.rng.FreshSeed()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	codes, values := encodeGroups(ds, groups, opts.Metric)
	diffs := make([]float64, iterations)
	valid := make([]bool, iterations)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	chunks := (iterations + bootstrapChunk - 1) / bootstrapChunk
	for c := 0; c < chunks; c++ {
		if gctx.Err() != nil {
			break
		}
		chunk := c
		g.Go(func() error {
			r, err := b.rng.Stream(gctx, bootstrapStream, seed, chunk)
			if err != nil {
				return err
			}
			lo := chunk * bootstrapChunk
			hi := min(lo+bootstrapChunk, iterations)
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				diffs[i], valid[i] = resampleDifference(r, codes, values)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Cancelled(err)
		}
		return nil, errors.Wrap(err, "bootstrap")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}

	kept := diffs[:0]
	for i, ok := range valid {
		if ok {
			kept = append(kept, diffs[i])
		}
	}
	skipped := iterations - len(kept)

	if len(kept) == 0 {
		return nil, errors.Validation("no valid bootstrap iterations",
			fmt.Errorf("%w: all %d resamples missed a group", core.ErrNoValidIterations, iterations))
	}
	if skipped > 0 {
		b.logger.Warn("bootstrap skipped %d of %d resamples missing a group (%s)",
			skipped, iterations, errors.DegenerateResultWarning("single-group resample"))
	}

	result := stats.NewBootstrapResult(kept, iterations, skipped, seed)
	b.logger.Debug("bootstrap %s: %d iterations, %d workers, seed %d, P(A>B)=%.4f",
		opts.Metric, iterations, workers, seed, result.ProbabilityABetter)
	return result, nil
}

func encodeGroups(ds *dataset.Dataset, groups dataset.GroupPair, m dataset.Metric) ([]int8, []float64) {
	codes := make([]int8, ds.Len())
	values := make([]float64, ds.Len())
	for i, r := range ds.Records {
		switch r.Group {
		case groups.A:
			codes[i] = codeA
		case groups.B:
			codes[i] = codeB
		default:
			codes[i] = codeOther
		}
		values[i] = r.Value(m)
	}
	return codes, values
}

// resampleDifference draws len(values) indices with replacement and returns
// mean(A) - mean(B) over the draw. ok is false when either group was not drawn.
func resampleDifference(r *rand.Rand, codes []int8, values []float64) (diff float64, ok bool) {
	n := len(values)
	var sumA, sumB float64
	var nA, nB int
	for j := 0; j < n; j++ {
		k := r.Intn(n)
		switch codes[k] {
		case codeA:
			sumA += values[k]
			nA++
		case codeB:
			sumB += values[k]
			nB++
		}
	}
	if nA == 0 || nB == 0 {
		return 0, false
	}
	return sumA/float64(nA) - sumB/float64(nB), true
}
