package anneal

import (
	"fmt"
	"strings"
)

// OptimizationStep is one entry of the search history used for convergence detection
type OptimizationStep struct {
	Iteration int
	// Score is the current (accepted) score
	Score float64
	// BestScore is only meaningful when HasBest is set
	BestScore float64
	HasBest   bool
}

// ConvergenceStrategy defines how to detect convergence
type ConvergenceStrategy interface {
	// CheckConvergence checks if the search has converged based on history
	CheckConvergence(history []OptimizationStep) (bool, string)
	// Name returns the name of the convergence strategy
	Name() string
}

// ConvergenceConfig holds configuration for convergence detection
type ConvergenceConfig struct {
	// NoImprovementIterations is the number of iterations without a best-score improvement before stopping
	NoImprovementIterations int
	// ScoreTolerance is the absolute tolerance below which score changes are ignored
	ScoreTolerance float64
	// MinIterations is the minimum number of iterations before convergence can be detected
	MinIterations int
	// PlateauIterations is the number of iterations with a flat current score before stopping
	PlateauIterations int
}

// DefaultConvergenceConfig returns a default convergence configuration
func DefaultConvergenceConfig() *ConvergenceConfig {
	return &ConvergenceConfig{
		NoImprovementIterations: 2000,
		ScoreTolerance:          1e-9,
		MinIterations:           100,
		PlateauIterations:       0,
	}
}

// NoImprovementStrategy detects convergence when the best score has not improved for N iterations
type NoImprovementStrategy struct {
	config *ConvergenceConfig
}

// NewNoImprovementStrategy creates a new no-improvement convergence strategy
func NewNoImprovementStrategy(config *ConvergenceConfig) *NoImprovementStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &NoImprovementStrategy{config: config}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	window := s.config.NoImprovementIterations
	if window <= 0 || len(history) < s.config.MinIterations || len(history) <= window {
		return false, ""
	}

	// Walk back at most window steps looking for an improvement
	last := len(history) - 1
	for i := last; i > last-window; i-- {
		prev, cur := history[i-1], history[i]
		if cur.HasBest && (!prev.HasBest || cur.BestScore > prev.BestScore+s.config.ScoreTolerance) {
			return false, ""
		}
	}
	if !history[last].HasBest {
		return false, ""
	}
	return true, fmt.Sprintf("no improvement for %d iterations (best %.6g)", window, history[last].BestScore)
}

// PlateauStrategy detects convergence when the current score has stopped moving
type PlateauStrategy struct {
	config *ConvergenceConfig
}

// NewPlateauStrategy creates a new plateau convergence strategy
func NewPlateauStrategy(config *ConvergenceConfig) *PlateauStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &PlateauStrategy{config: config}
}

func (s *PlateauStrategy) Name() string {
	return "plateau"
}

func (s *PlateauStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	window := s.config.PlateauIterations
	if window <= 0 || len(history) < s.config.MinIterations || len(history) < window {
		return false, ""
	}

	recent := history[len(history)-window:]
	minScore, maxScore := recent[0].Score, recent[0].Score
	for _, step := range recent {
		if step.Score < minScore {
			minScore = step.Score
		}
		if step.Score > maxScore {
			maxScore = step.Score
		}
	}

	if maxScore-minScore <= s.config.ScoreTolerance {
		return true, fmt.Sprintf("score plateau for %d iterations (range %.3g)", window, maxScore-minScore)
	}
	return false, ""
}

// CombinedStrategy reports convergence as soon as any of its strategies does
type CombinedStrategy struct {
	strategies []ConvergenceStrategy
}

// NewCombinedStrategy creates a strategy that combines multiple strategies
func NewCombinedStrategy(strategies ...ConvergenceStrategy) *CombinedStrategy {
	return &CombinedStrategy{strategies: strategies}
}

func (s *CombinedStrategy) Name() string {
	names := make([]string, len(s.strategies))
	for i, st := range s.strategies {
		names[i] = st.Name()
	}
	return "combined(" + strings.Join(names, ",") + ")"
}

func (s *CombinedStrategy) CheckConvergence(history []OptimizationStep) (bool, string) {
	for _, strategy := range s.strategies {
		if converged, reason := strategy.CheckConvergence(history); converged {
			return true, strategy.Name() + ": " + reason
		}
	}
	return false, ""
}

// NewConvergenceStrategy combines the strategies enabled by config.
// It returns nil when none is enabled.
func NewConvergenceStrategy(config *ConvergenceConfig) ConvergenceStrategy {
	if config == nil {
		return nil
	}
	var strategies []ConvergenceStrategy
	if config.NoImprovementIterations > 0 {
		strategies = append(strategies, NewNoImprovementStrategy(config))
	}
	if config.PlateauIterations > 0 {
		strategies = append(strategies, NewPlateauStrategy(config))
	}
	switch len(strategies) {
	case 0:
		return nil
	case 1:
		return strategies[0]
	}
	return NewCombinedStrategy(strategies...)
}
