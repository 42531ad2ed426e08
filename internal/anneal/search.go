package anneal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoSim-25-26J-441/layup-core/internal/constraint"
	"github.com/GoSim-25-26J-441/layup-core/internal/laminate"
	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Search is a problem resolved into the read-only pieces shared by every instance
type Search struct {
	Problem   *config.Problem
	Materials *models.MaterialTable
	Evaluator laminate.Evaluator
	Checker   *constraint.Checker
	Objective Objective
	Schedule  Schedule
	Batch     BatchOptions

	// Observer, when set, receives a state snapshot every trace sample of every instance
	Observer func(index int, s State)

	base Config
}

// NewSearch resolves a validated problem. log may be nil.
func NewSearch(p *config.Problem, log *slog.Logger) (*Search, error) {
	if p == nil {
		return nil, fmt.Errorf("problem is nil")
	}
	if log == nil {
		log = logger.With("component", "search")
	}

	materials, err := p.MaterialTable()
	if err != nil {
		return nil, fmt.Errorf("materials: %w", err)
	}
	criterion, err := laminate.ParseCriterion(p.FailureCriterion)
	if err != nil {
		return nil, err
	}
	evaluator := laminate.Evaluator{
		Materials: materials,
		Criterion: criterion,
		LoadCase: laminate.LoadCase{
			Type:  laminate.LoadCaseType(p.LoadCase.Type),
			Span:  p.LoadCase.Span,
			Width: p.LoadCase.Width,
		},
	}
	checker, err := constraint.NewCheckerFromConfig(p)
	if err != nil {
		return nil, fmt.Errorf("constraints: %w", err)
	}

	template := models.NewPly(0, p.Ply.Thickness, p.Ply.Material)
	params := ObjectiveParams{
		Weighting:    p.Objective.Weighting(),
		StiffnessRef: p.Objective.StiffnessRef,
		WeightRef:    p.Objective.WeightRef,
	}
	if params.StiffnessRef <= 0 || params.WeightRef <= 0 {
		// The thickest laminate the bounds allow keeps both ratios near or below 1
		dref, wref, err := referenceValues(evaluator, template, p.PlyCountBounds.Max, p.DesignLoad)
		if err != nil {
			return nil, fmt.Errorf("objective reference: %w", err)
		}
		if params.StiffnessRef <= 0 {
			params.StiffnessRef = dref
		}
		if params.WeightRef <= 0 {
			params.WeightRef = wref
		}
	}
	objective, err := NewObjective(p.Objective.Type, params)
	if err != nil {
		return nil, err
	}

	a := p.Annealing
	schedule, err := NewSchedule(a.CoolingSchedule, ScheduleParams{
		Initial:       a.InitialTemperature,
		Rate:          a.CoolingRate,
		Interval:      a.CoolingInterval,
		Final:         a.StopTemperature(),
		MaxIterations: a.MaxIterations,
	})
	if err != nil {
		return nil, err
	}

	var convergence ConvergenceStrategy
	if a.Convergence.Enabled {
		convergence = NewConvergenceStrategy(&ConvergenceConfig{
			NoImprovementIterations: a.Convergence.NoImprovementIterations,
			ScoreTolerance:          a.Convergence.ScoreTolerance,
			MinIterations:           a.Convergence.MinIterations,
			PlateauIterations:       a.Convergence.PlateauIterations,
		})
	}

	timeout, err := p.GetTimeout()
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	w := a.MutationWeights
	s := &Search{
		Problem:   p,
		Materials: materials,
		Evaluator: evaluator,
		Checker:   checker,
		Objective: objective,
		Schedule:  schedule,
		Batch: BatchOptions{
			Runs:        p.Runs,
			Parallelism: p.Parallelism,
			Timeout:     timeout,
			Seed:        p.RandomSeed,
		},
	}
	s.base = Config{
		DesignLoad:     p.DesignLoad,
		Evaluator:      evaluator,
		Checker:        checker,
		Objective:      objective,
		Schedule:       schedule,
		MinTemperature: a.StopTemperature(),
		MaxIterations:  a.MaxIterations,
		Policy:         InfeasiblePolicy(a.InfeasiblePolicy),
		Penalty:        a.PenaltyPerViolation(),
		Mutation: MutatorConfig{
			Template:      template,
			ThicknessStep: p.Ply.ThicknessStep,
			MinThickness:  p.Ply.MinThickness,
			MaxThickness:  p.Ply.MaxThickness,
			Weights: map[MoveKind]float64{
				MoveSwap:      w.Swap,
				MoveFlip:      w.Flip,
				MovePair:      w.Pair,
				MoveThickness: w.Thickness,
				MoveInsert:    w.Insert,
				MoveDelete:    w.Delete,
			},
		},
		Seed:        p.Seed(),
		TraceEvery:  a.TraceEvery,
		LogEvery:    a.LogEvery,
		Convergence: convergence,
		Logger:      log,
	}
	return s, nil
}

// referenceValues evaluates a unidirectional 0° laminate of n template plies. Its
// stiffness and weight normalize weighted_sum so that scores of different instances
// stay comparable.
func referenceValues(e laminate.Evaluator, template models.Ply, n int, load float64) (float64, float64, error) {
	if n <= 0 {
		return 0, 0, fmt.Errorf("reference laminate needs plies, got %d", n)
	}
	orientations := make([]models.Orientation, n)
	ref := models.UniformSequence(template.Thickness, template.MaterialID, orientations...)
	res, err := e.Evaluate(ref, load)
	if err != nil {
		return 0, 0, err
	}
	return res.EffectiveStiffness, res.ArealWeight, nil
}

// Config returns the annealer configuration shared by every instance
func (s *Search) Config() Config {
	return s.base
}

// NewAnnealer builds the annealer of batch instance index. It satisfies Factory.
func (s *Search) NewAnnealer(index int, seed int64) (*Annealer, error) {
	cfg := s.base
	cfg.Logger = s.base.Logger.With("instance", index)
	if s.Observer != nil {
		observer := s.Observer
		cfg.Observer = func(st State) { observer(index, st) }
	}
	return NewAnnealer(cfg, seed)
}

// Run executes the batch of instances configured by the problem
func (s *Search) Run(ctx context.Context) (*BatchResult, error) {
	s.base.Logger.Info("search started",
		"runs", s.Batch.Runs,
		"parallelism", s.Batch.Parallelism,
		"objective", s.Objective.Name(),
		"schedule", s.Schedule.Name(),
		"seed", s.Batch.Seed)
	res, err := RunBatch(ctx, s.NewAnnealer, s.Batch)
	if err != nil {
		s.base.Logger.Warn("search finished without a result", "error", err)
		return res, err
	}
	s.base.Logger.Info("search finished",
		"best_instance", res.BestIndex,
		"layup", res.Best.Layup,
		"score", res.Best.Score,
		"failure_margin", res.Best.Evaluation.FailureMargin,
		"evaluations", res.Stats.Evaluations)
	return res, nil
}

// Assess evaluates a complete sequence against the problem. Score is the raw
// objective value; infeasible designs are reported, not penalized.
func (s *Search) Assess(seq models.StackingSequence) (*Candidate, error) {
	res, err := s.Evaluator.Evaluate(seq, s.Problem.DesignLoad)
	if err != nil {
		return nil, err
	}
	violations := s.Checker.Violations(seq)
	if !res.Feasible() {
		violations = violations.With(constraint.FirstPlyFailure)
	}
	return &Candidate{
		Sequence:   seq,
		Evaluation: res,
		Score:      s.Objective.Score(res),
		Violations: violations,
	}, nil
}
