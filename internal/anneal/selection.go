package anneal

import (
	"fmt"
	"math"
)

// Compare orders two results by score: positive when a is better, negative when b is
// better, zero on a tie. A nil result is worse than any other.
func Compare(a, b *Result) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Score > b.Score:
		return 1
	case a.Score < b.Score:
		return -1
	}
	return 0
}

// SelectBest returns the index of the best result. nil entries (instances without a
// feasible design) are skipped and ties keep the lowest index.
func SelectBest(results []*Result) (int, *Result, error) {
	best := -1
	for i, r := range results {
		if r == nil {
			continue
		}
		if best < 0 || Compare(r, results[best]) > 0 {
			best = i
		}
	}
	if best < 0 {
		return -1, nil, &NoFeasibleSolutionError{Instances: len(results), Reason: "no instance found a feasible design"}
	}
	return best, results[best], nil
}

// Comparison describes how one result relates to a baseline
type Comparison struct {
	ScoreDelta     float64 `json:"score_delta"`
	StiffnessRatio float64 `json:"stiffness_ratio"`
	WeightRatio    float64 `json:"weight_ratio"`
	MarginDelta    float64 `json:"margin_delta"`
	Better         bool    `json:"better"`
}

// CompareResults compares candidate against baseline
func CompareResults(candidate, baseline *Result) (*Comparison, error) {
	if candidate == nil || baseline == nil {
		return nil, fmt.Errorf("cannot compare nil results")
	}
	if candidate.Objective != baseline.Objective {
		return nil, fmt.Errorf("results use different objectives: %s vs %s", candidate.Objective, baseline.Objective)
	}
	return &Comparison{
		ScoreDelta:     candidate.Score - baseline.Score,
		StiffnessRatio: ratio(candidate.Evaluation.EffectiveStiffness, baseline.Evaluation.EffectiveStiffness),
		WeightRatio:    ratio(candidate.Evaluation.ArealWeight, baseline.Evaluation.ArealWeight),
		MarginDelta:    candidate.Evaluation.FailureMargin - baseline.Evaluation.FailureMargin,
		Better:         Compare(candidate, baseline) > 0,
	}, nil
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return a / b
}
