package anneal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/layup-core/internal/metrics"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

// Factory builds the annealer for one batch instance
type Factory func(index int, seed int64) (*Annealer, error)

// BatchOptions configures RunBatch
type BatchOptions struct {
	Runs        int
	Parallelism int
	// Timeout stops every instance after the duration; each still reports its best so far
	Timeout time.Duration
	// Seed is the base seed; instance i uses InstanceSeed(Seed, i)
	Seed int64
	// OnInstanceDone is called from the instance goroutine when an instance finishes
	OnInstanceDone func(InstanceResult)
}

// InstanceResult is the outcome of one batch instance
type InstanceResult struct {
	Index  int                 `json:"index"`
	Seed   int64               `json:"seed,string"`
	Result *Result             `json:"result,omitempty"`
	Stats  metrics.SearchStats `json:"stats"`
	Err    error               `json:"-"`
	Error  string              `json:"error,omitempty"`
}

// BatchResult combines independent instances
type BatchResult struct {
	Best      *Result             `json:"best,omitempty"`
	BestIndex int                 `json:"best_index"`
	Instances []InstanceResult    `json:"instances"`
	Stats     metrics.SearchStats `json:"stats"`
}

// InstanceSeed derives the seed of instance index from the base seed
func InstanceSeed(base int64, index int) int64 {
	return utils.DeriveSeed(base, uint64(index))
}

// RunBatch runs opts.Runs independent annealers, at most opts.Parallelism at a time,
// and selects the best feasible result. Instances share nothing but the read-only
// configuration captured by factory.
//
// When no instance finds a feasible design the error wraps ErrNoFeasibleSolution.
// Any other instance error is returned with the partial batch.
func RunBatch(ctx context.Context, factory Factory, opts BatchOptions) (*BatchResult, error) {
	if factory == nil {
		return nil, fmt.Errorf("batch needs an annealer factory")
	}
	runs := opts.Runs
	if runs <= 0 {
		runs = 1
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 || parallelism > runs {
		parallelism = runs
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// Limit parallelism
	semaphore := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	instances := make([]InstanceResult, runs)

	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			// Acquire semaphore
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			out := runInstance(ctx, factory, idx, InstanceSeed(opts.Seed, idx))
			instances[idx] = out
			if opts.OnInstanceDone != nil {
				opts.OnInstanceDone(out)
			}
		}(i)
	}

	wg.Wait()

	batch := &BatchResult{BestIndex: -1, Instances: instances}
	results := make([]*Result, runs)
	stats := make([]metrics.SearchStats, runs)
	iterations := 0
	var firstErr error
	for i, inst := range instances {
		results[i] = inst.Result
		stats[i] = inst.Stats
		iterations += int(inst.Stats.Iterations)
		if inst.Err != nil && !errors.Is(inst.Err, ErrNoFeasibleSolution) && firstErr == nil {
			firstErr = fmt.Errorf("instance %d: %w", i, inst.Err)
		}
	}
	batch.Stats = metrics.Merge(stats...)
	if firstErr != nil {
		return batch, firstErr
	}

	idx, best, err := SelectBest(results)
	if err != nil {
		return batch, &NoFeasibleSolutionError{
			Instances:  runs,
			Iterations: iterations,
			Reason:     firstReason(instances),
		}
	}
	batch.Best = best
	batch.BestIndex = idx
	return batch, nil
}

func runInstance(ctx context.Context, factory Factory, idx int, seed int64) InstanceResult {
	out := InstanceResult{Index: idx, Seed: seed}
	a, err := factory(idx, seed)
	if err != nil {
		out.Err = err
		out.Error = err.Error()
		return out
	}
	res, err := a.Run(ctx)
	out.Result = res
	out.Stats = a.Stats()
	if err != nil {
		out.Err = err
		out.Error = err.Error()
	}
	return out
}

func firstReason(instances []InstanceResult) string {
	for _, inst := range instances {
		var nf *NoFeasibleSolutionError
		if errors.As(inst.Err, &nf) && nf.Reason != "" {
			return nf.Reason
		}
	}
	return "no instance found a feasible design"
}
