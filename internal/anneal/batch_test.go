package anneal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatchDeterministic(t *testing.T) {
	s := plateSearch(t)
	opts := BatchOptions{Runs: 3, Parallelism: 2, Seed: 42}

	first, err := RunBatch(context.Background(), s.NewAnnealer, opts)
	require.NoError(t, err)
	second, err := RunBatch(context.Background(), s.NewAnnealer, opts)
	require.NoError(t, err)

	assert.Equal(t, first.BestIndex, second.BestIndex)
	assert.True(t, first.Best.Sequence.Equal(second.Best.Sequence))
	assert.Equal(t, first.Best.Score, second.Best.Score)
	require.Len(t, first.Instances, 3)
	for i, inst := range first.Instances {
		assert.Equal(t, i, inst.Index)
		assert.Equal(t, InstanceSeed(42, i), inst.Seed)
		require.NotNil(t, inst.Result)
		assert.Equal(t, inst.Seed, inst.Result.Seed)
		assert.LessOrEqual(t, inst.Result.Score, first.Best.Score)
	}
	assert.NotEqual(t, first.Instances[0].Seed, first.Instances[1].Seed)
}

func TestRunBatchMatchesSingleInstance(t *testing.T) {
	s := plateSearch(t)
	batch, err := RunBatch(context.Background(), s.NewAnnealer, BatchOptions{Runs: 2, Seed: 5})
	require.NoError(t, err)

	a, err := s.NewAnnealer(1, InstanceSeed(5, 1))
	require.NoError(t, err)
	alone, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, batch.Instances[1].Result.Sequence.Equal(alone.Sequence))
	assert.Equal(t, batch.Instances[1].Result.Score, alone.Score)
}

func TestRunBatchCallsOnInstanceDone(t *testing.T) {
	s := plateSearch(t)
	var mu sync.Mutex
	done := make(map[int]bool)
	_, err := RunBatch(context.Background(), s.NewAnnealer, BatchOptions{
		Runs:        4,
		Parallelism: 2,
		OnInstanceDone: func(r InstanceResult) {
			mu.Lock()
			defer mu.Unlock()
			done[r.Index] = true
		},
	})
	require.NoError(t, err)
	assert.Len(t, done, 4)
}

func TestRunBatchFactoryError(t *testing.T) {
	boom := errors.New("boom")
	res, err := RunBatch(context.Background(), func(index int, seed int64) (*Annealer, error) {
		return nil, boom
	}, BatchOptions{Runs: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "instance 0")
	require.NotNil(t, res)
	assert.Equal(t, "boom", res.Instances[1].Error)

	_, err = RunBatch(context.Background(), nil, BatchOptions{})
	assert.Error(t, err)
}

func TestRunBatchCancelled(t *testing.T) {
	s := plateSearch(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := RunBatch(ctx, s.NewAnnealer, BatchOptions{Runs: 3, Parallelism: 1})
	require.NoError(t, err)
	for _, inst := range res.Instances {
		require.NotNil(t, inst.Result)
		assert.Equal(t, ReasonCancelled, inst.Result.Reason)
		assert.Equal(t, 0, inst.Result.Iterations)
	}
	assert.NotNil(t, res.Best)
}

func TestSelectBest(t *testing.T) {
	results := []*Result{nil, {Score: 2}, {Score: 3}, {Score: 3}, {Score: 1}}
	idx, best, err := SelectBest(results)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Same(t, results[2], best)

	_, _, err = SelectBest([]*Result{nil, nil})
	assert.True(t, errors.Is(err, ErrNoFeasibleSolution))
}

func TestCompare(t *testing.T) {
	a, b := &Result{Score: 2}, &Result{Score: 1}
	assert.Equal(t, 1, Compare(a, b))
	assert.Equal(t, -1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, &Result{Score: 2}))
	assert.Equal(t, 1, Compare(b, nil))
	assert.Equal(t, -1, Compare(nil, b))
	assert.Equal(t, 0, Compare(nil, nil))
}

func TestCompareResults(t *testing.T) {
	base := &Result{Objective: "specific_stiffness", Score: 1}
	base.Evaluation.EffectiveStiffness = 1000
	base.Evaluation.ArealWeight = 10
	base.Evaluation.FailureMargin = 2
	cand := &Result{Objective: "specific_stiffness", Score: 1.5}
	cand.Evaluation.EffectiveStiffness = 3000
	cand.Evaluation.ArealWeight = 20
	cand.Evaluation.FailureMargin = 5

	c, err := CompareResults(cand, base)
	require.NoError(t, err)
	assert.True(t, c.Better)
	assert.InDelta(t, 0.5, c.ScoreDelta, 1e-12)
	assert.InDelta(t, 3, c.StiffnessRatio, 1e-12)
	assert.InDelta(t, 2, c.WeightRatio, 1e-12)
	assert.InDelta(t, 3, c.MarginDelta, 1e-12)

	_, err = CompareResults(cand, &Result{Objective: "weighted_sum"})
	assert.Error(t, err)
	_, err = CompareResults(nil, base)
	assert.Error(t, err)
}

func TestNoFeasibleSolutionErrorMessage(t *testing.T) {
	err := &NoFeasibleSolutionError{Instances: 1, Iterations: 10, Reason: "max_iterations"}
	assert.Equal(t, "no feasible solution after 10 iterations: max_iterations", err.Error())
	err = &NoFeasibleSolutionError{Instances: 3, Iterations: 30}
	assert.Equal(t, "no feasible solution in 3 instances (30 iterations)", err.Error())
	assert.True(t, errors.Is(err, ErrNoFeasibleSolution))
}
