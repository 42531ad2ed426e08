package anneal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/GoSim-25-26J-441/layup-core/internal/constraint"
	"github.com/GoSim-25-26J-441/layup-core/internal/laminate"
	"github.com/GoSim-25-26J-441/layup-core/internal/metrics"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

// Phase is the lifecycle state of an Annealer
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseAnnealing
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseAnnealing:
		return "annealing"
	case PhaseTerminated:
		return "terminated"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// TerminationReason records why an annealer stopped
type TerminationReason string

const (
	ReasonMaxIterations    TerminationReason = "max_iterations"
	ReasonMinTemperature   TerminationReason = "min_temperature"
	ReasonConverged        TerminationReason = "converged"
	ReasonCancelled        TerminationReason = "cancelled"
	ReasonNoFeasibleDesign TerminationReason = "no_feasible_design"
	ReasonError            TerminationReason = "error"
)

// InfeasiblePolicy decides what happens to candidates that violate a constraint
type InfeasiblePolicy string

const (
	// PolicyReject discards infeasible candidates without scoring them
	PolicyReject InfeasiblePolicy = "reject"
	// PolicyPenalty scores infeasible candidates minus Penalty per violated kind.
	// They may become the current state but never the best.
	PolicyPenalty InfeasiblePolicy = "penalty"
)

// Config holds everything one annealing instance needs. All referenced values are
// read-only and may be shared between instances.
type Config struct {
	DesignLoad     float64
	Evaluator      laminate.Evaluator
	Checker        *constraint.Checker
	Objective      Objective
	Schedule       Schedule
	MinTemperature float64
	MaxIterations  int
	Policy         InfeasiblePolicy
	Penalty        float64
	// Mutation supplies the ply template, thickness steps and move weights.
	// Orientations, layout, ply bounds and balance are taken from Checker.
	Mutation MutatorConfig
	// Seed is an optional starting laminate
	Seed models.StackingSequence
	// TraceEvery samples the trace every N iterations (0 disables the trace)
	TraceEvery int
	// LogEvery logs progress every N iterations (0 disables progress logs)
	LogEvery    int
	Convergence ConvergenceStrategy
	Logger      *slog.Logger
	// Observer, when set, is called with a snapshot at every trace sample
	Observer func(State)
}

// Candidate is an evaluated design. Candidates are never modified after creation.
type Candidate struct {
	Sequence   models.StackingSequence   `json:"sequence"`
	Evaluation laminate.EvaluationResult `json:"evaluation"`
	Score      float64                   `json:"score"`
	Violations constraint.ViolationSet   `json:"violations"`
}

// Feasible reports whether the candidate violates nothing, failure included
func (c *Candidate) Feasible() bool {
	return c != nil && c.Violations.Empty()
}

// State is a snapshot of an annealer
type State struct {
	Phase       Phase
	Iteration   int
	Temperature float64
	Current     *Candidate
	Best        *Candidate
}

// TracePoint is one sample of the search progress
type TracePoint struct {
	Iteration    int     `json:"iteration"`
	Temperature  float64 `json:"temperature"`
	CurrentScore float64 `json:"current_score"`
	BestScore    float64 `json:"best_score"`
	HasBest      bool    `json:"has_best"`
	PlyCount     int     `json:"ply_count"`
}

// Result is the outcome of one annealing instance
type Result struct {
	Sequence   models.StackingSequence   `json:"sequence"`
	Layup      string                    `json:"layup"`
	Evaluation laminate.EvaluationResult `json:"evaluation"`
	Score      float64                   `json:"score"`
	Objective  string                    `json:"objective"`
	Seed       int64                     `json:"seed,string"`
	Iterations int                       `json:"iterations"`
	Reason     TerminationReason         `json:"termination_reason"`
	Detail     string                    `json:"termination_detail,omitempty"`
	Trace      []TracePoint              `json:"trace,omitempty"`
	Stats      metrics.SearchStats       `json:"stats"`
}

// Annealer runs one simulated-annealing search. It is not safe for concurrent use;
// parallel searches use one Annealer each.
type Annealer struct {
	cfg       Config
	seed      int64
	rng       *utils.RandSource
	layout    Layout
	mutator   *Mutator
	composer  *composer
	collector *metrics.Collector
	log       *slog.Logger

	phase       Phase
	iteration   int
	temperature float64
	genome      models.StackingSequence
	current     *Candidate
	best        *Candidate
	reason      TerminationReason
	detail      string
	trace       []TracePoint
	history     []OptimizationStep
}

// NewAnnealer validates cfg and creates an annealer in the Initializing phase
func NewAnnealer(cfg Config, seed int64) (*Annealer, error) {
	if cfg.Checker == nil {
		return nil, fmt.Errorf("annealer needs a constraint checker")
	}
	if cfg.Objective == nil {
		return nil, fmt.Errorf("annealer needs an objective")
	}
	if cfg.Schedule == nil {
		return nil, fmt.Errorf("annealer needs a cooling schedule")
	}
	if !(cfg.DesignLoad > 0) {
		return nil, fmt.Errorf("%w: design load must be positive, got %g", laminate.ErrInvalidLoad, cfg.DesignLoad)
	}
	if cfg.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", cfg.MaxIterations)
	}
	switch cfg.Policy {
	case "":
		cfg.Policy = PolicyReject
	case PolicyReject, PolicyPenalty:
	default:
		return nil, fmt.Errorf("unknown infeasible policy: %s", cfg.Policy)
	}
	if cfg.Penalty < 0 {
		return nil, fmt.Errorf("penalty must be non-negative, got %g", cfg.Penalty)
	}

	rules := cfg.Checker.Rules()
	layout := Layout{Symmetric: rules.RequireSymmetry}
	mc := cfg.Mutation
	mc.Orientations = rules.AllowedOrientations
	mc.Layout = layout
	mc.MinPlies = rules.PlyCount.Min
	mc.MaxPlies = rules.PlyCount.Max
	mc.Balance = rules.RequireBalance
	mutator, err := NewMutator(mc)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.With("component", "annealer")
	}
	rng := utils.NewRandSource(seed)

	return &Annealer{
		cfg:     cfg,
		seed:    rng.Seed(),
		rng:     rng,
		layout:  layout,
		mutator: mutator,
		composer: &composer{
			checker:  cfg.Checker,
			layout:   layout,
			balance:  rules.RequireBalance,
			template: mc.Template,
		},
		collector: metrics.NewCollector(),
		log:       log.With("seed", rng.Seed()),
		phase:     PhaseInitializing,
	}, nil
}

// Seed returns the seed of the annealer's random source
func (a *Annealer) Seed() int64 {
	return a.seed
}

// Collector exposes the counters and series of this instance
func (a *Annealer) Collector() *metrics.Collector {
	return a.collector
}

// Stats returns a snapshot of the search counters
func (a *Annealer) Stats() metrics.SearchStats {
	return metrics.Stats(a.collector)
}

// State returns a snapshot of the annealer
func (a *Annealer) State() State {
	return State{
		Phase:       a.phase,
		Iteration:   a.iteration,
		Temperature: a.temperature,
		Current:     a.current,
		Best:        a.best,
	}
}

// Trace returns the sampled progress so far
func (a *Annealer) Trace() []TracePoint {
	out := make([]TracePoint, len(a.trace))
	copy(out, a.trace)
	return out
}

// Initialize builds the starting design and enters the Annealing phase.
// It returns ErrInfeasibleSeed for an unusable seed and a NoFeasibleSolutionError
// when the constraints admit no design at all.
func (a *Annealer) Initialize() error {
	if a.phase != PhaseInitializing {
		return fmt.Errorf("annealer already initialized (phase %s)", a.phase)
	}
	a.collector.Start()

	var err error
	if !a.cfg.Seed.IsEmpty() {
		err = a.initFromSeed()
	} else {
		err = a.initRandom()
	}
	if err != nil {
		var nf *NoFeasibleSolutionError
		if errors.As(err, &nf) {
			a.terminate(ReasonNoFeasibleDesign, nf.Reason)
		} else {
			a.terminate(ReasonError, err.Error())
		}
		return err
	}

	a.phase = PhaseAnnealing
	a.temperature = a.cfg.Schedule.Temperature(0)
	a.observe()
	a.log.Debug("annealer initialized",
		"layup", a.current.Sequence.String(),
		"score", a.current.Score,
		"feasible", a.current.Feasible(),
		"temperature", a.temperature)
	return nil
}

func (a *Annealer) initFromSeed() error {
	full := a.cfg.Seed
	genome, err := a.layout.Genome(full)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInfeasibleSeed, err)
	}
	if v := a.cfg.Checker.Violations(full); !v.Empty() {
		return fmt.Errorf("%w: %s violates %s", ErrInfeasibleSeed, full, v)
	}
	cand, err := a.evaluate(full, constraint.ViolationSet{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInfeasibleSeed, err)
	}
	if !cand.Feasible() {
		return fmt.Errorf("%w: %s has failure margin %.3f", ErrInfeasibleSeed, full, cand.Evaluation.FailureMargin)
	}
	a.genome = genome
	a.current = cand
	a.best = cand
	return nil
}

func (a *Annealer) initRandom() error {
	lo, hi := a.mutator.GenomeBounds()
	lengths := a.composer.feasibleLengths(lo, hi)
	if len(lengths) == 0 {
		return &NoFeasibleSolutionError{Instances: 1, Reason: "constraints admit no stacking sequence"}
	}

	var fallback *Candidate
	var fallbackGenome models.StackingSequence
	for attempt := 0; attempt < maxInitialAttempts; attempt++ {
		n := lengths[a.rng.Intn(len(lengths))]
		genome, ok := a.composer.compose(n, a.rng)
		if !ok {
			continue
		}
		full := a.layout.Expand(genome)
		if !a.cfg.Checker.IsFeasible(full) {
			continue
		}
		cand, err := a.evaluate(full, constraint.ViolationSet{})
		if err != nil {
			return err
		}
		if cand.Feasible() {
			a.genome = genome
			a.current = cand
			a.best = cand
			return nil
		}
		if fallback == nil {
			fallback, fallbackGenome = cand, genome
		}
	}
	if fallback == nil {
		return &NoFeasibleSolutionError{Instances: 1, Reason: "could not compose a stacking sequence"}
	}

	// Start from a design that meets every layup rule but fails under the load.
	// It is scored with the penalty and is never recorded as best.
	a.log.Warn("no initial design survives the design load, starting from a penalized design",
		"layup", fallback.Sequence.String(),
		"failure_margin", fallback.Evaluation.FailureMargin)
	a.genome = fallbackGenome
	a.current = fallback
	return nil
}

// evaluate scores a full laminate. violations are the layup rule violations already found;
// a failure margin below 1 adds FirstPlyFailure.
func (a *Annealer) evaluate(full models.StackingSequence, violations constraint.ViolationSet) (*Candidate, error) {
	res, err := a.cfg.Evaluator.Evaluate(full, a.cfg.DesignLoad)
	if err != nil {
		return nil, err
	}
	a.collector.Inc(metrics.CounterEvaluations, 1)
	if !res.Feasible() {
		violations = violations.With(constraint.FirstPlyFailure)
	}
	score := a.cfg.Objective.Score(res)
	if !violations.Empty() {
		score -= a.cfg.Penalty * float64(violations.Len())
	}
	return &Candidate{Sequence: full, Evaluation: res, Score: score, Violations: violations}, nil
}

func (a *Annealer) countInfeasible(v constraint.ViolationSet) {
	for _, k := range v.Kinds() {
		a.collector.Inc(metrics.InfeasibleCounter(string(k)), 1)
	}
}

// Step advances the state machine by one transition: initialization, or one
// annealing iteration. It returns false once the annealer has terminated.
func (a *Annealer) Step() (bool, error) {
	switch a.phase {
	case PhaseInitializing:
		if err := a.Initialize(); err != nil {
			return false, err
		}
		return true, nil
	case PhaseTerminated:
		return false, nil
	}

	if err := a.iterate(); err != nil {
		a.terminate(ReasonError, err.Error())
		return false, err
	}

	a.iteration++
	a.collector.Inc(metrics.CounterIterations, 1)
	a.temperature = a.cfg.Schedule.Temperature(a.iteration)
	a.observe()

	if reason, detail, done := a.shouldStop(); done {
		a.terminate(reason, detail)
		return false, nil
	}
	return true, nil
}

// iterate proposes, screens, scores and accepts or rejects one candidate
func (a *Annealer) iterate() error {
	genome, kind, ok := a.mutator.Propose(a.genome, a.rng)
	if !ok {
		a.collector.Inc(metrics.CounterNoMove, 1)
		return nil
	}
	a.collector.Inc(metrics.MoveCounter(string(kind)), 1)

	full := a.layout.Expand(genome)
	violations := a.cfg.Checker.Violations(full)
	if !violations.Empty() && a.cfg.Policy == PolicyReject {
		a.countInfeasible(violations)
		a.collector.Inc(metrics.CounterRejected, 1)
		return nil
	}

	cand, err := a.evaluate(full, violations)
	if err != nil {
		return err
	}
	if !cand.Feasible() {
		a.countInfeasible(cand.Violations)
		if a.cfg.Policy == PolicyReject {
			a.collector.Inc(metrics.CounterRejected, 1)
			return nil
		}
	}

	if cand.Feasible() && (a.best == nil || cand.Score > a.best.Score) {
		a.best = cand
		a.collector.Inc(metrics.CounterImprovements, 1)
	}

	if a.accept(cand.Score - a.current.Score) {
		a.genome = genome
		a.current = cand
		a.collector.Inc(metrics.CounterAccepted, 1)
	} else {
		a.collector.Inc(metrics.CounterRejected, 1)
	}
	return nil
}

// accept applies the Metropolis rule to a score change (positive is better)
func (a *Annealer) accept(delta float64) bool {
	if delta > 0 {
		return true
	}
	if a.temperature <= 0 {
		return false
	}
	return a.rng.Float64() < math.Exp(delta/a.temperature)
}

func (a *Annealer) shouldStop() (TerminationReason, string, bool) {
	if a.iteration >= a.cfg.MaxIterations {
		return ReasonMaxIterations, "", true
	}
	if a.temperature < a.cfg.MinTemperature {
		return ReasonMinTemperature, fmt.Sprintf("temperature %.3g below %.3g", a.temperature, a.cfg.MinTemperature), true
	}
	if a.cfg.Convergence != nil {
		if converged, detail := a.cfg.Convergence.CheckConvergence(a.history); converged {
			return ReasonConverged, detail, true
		}
	}
	return "", "", false
}

// observe records the state after initialization and after every iteration
func (a *Annealer) observe() {
	point := TracePoint{
		Iteration:    a.iteration,
		Temperature:  a.temperature,
		CurrentScore: a.current.Score,
		PlyCount:     a.current.Sequence.Len(),
	}
	if a.best != nil {
		point.BestScore = a.best.Score
		point.HasBest = true
	}

	if a.cfg.Convergence != nil {
		a.history = append(a.history, OptimizationStep{
			Iteration: a.iteration,
			Score:     point.CurrentScore,
			BestScore: point.BestScore,
			HasBest:   point.HasBest,
		})
	}

	if a.cfg.TraceEvery > 0 && (a.iteration%a.cfg.TraceEvery == 0 || a.iteration >= a.cfg.MaxIterations) {
		a.record(point)
	}
	if a.cfg.LogEvery > 0 && a.iteration > 0 && a.iteration%a.cfg.LogEvery == 0 {
		a.log.Debug("annealing progress",
			"iteration", a.iteration,
			"temperature", a.temperature,
			"current_score", point.CurrentScore,
			"best_score", point.BestScore,
			"ply_count", point.PlyCount)
	}
}

func (a *Annealer) record(point TracePoint) {
	if n := len(a.trace); n > 0 && a.trace[n-1].Iteration == point.Iteration {
		return
	}
	a.trace = append(a.trace, point)
	if a.cfg.Observer != nil {
		a.cfg.Observer(a.State())
	}
	a.collector.Record(metrics.MetricCurrentScore, point.Iteration, point.CurrentScore)
	a.collector.Record(metrics.MetricTemperature, point.Iteration, point.Temperature)
	a.collector.Record(metrics.MetricPlyCount, point.Iteration, float64(point.PlyCount))
	if point.HasBest {
		a.collector.Record(metrics.MetricBestScore, point.Iteration, point.BestScore)
	}
}

func (a *Annealer) terminate(reason TerminationReason, detail string) {
	if a.phase == PhaseTerminated {
		return
	}
	a.phase = PhaseTerminated
	a.reason = reason
	a.detail = detail
	a.collector.Stop()

	// Close the trace with the final state even off the sampling grid
	if a.current != nil && a.cfg.TraceEvery > 0 {
		point := TracePoint{
			Iteration:    a.iteration,
			Temperature:  a.temperature,
			CurrentScore: a.current.Score,
			PlyCount:     a.current.Sequence.Len(),
		}
		if a.best != nil {
			point.BestScore = a.best.Score
			point.HasBest = true
		}
		a.record(point)
	}

	attrs := []any{"reason", string(reason), "iterations", a.iteration, "elapsed", a.collector.Duration()}
	if detail != "" {
		attrs = append(attrs, "detail", detail)
	}
	if a.best != nil {
		attrs = append(attrs,
			"best_layup", a.best.Sequence.String(),
			"best_score", a.best.Score,
			"failure_margin", a.best.Evaluation.FailureMargin)
	}
	a.log.Info("annealer terminated", attrs...)
}

// Run drives the annealer until it terminates or ctx is done. A cancelled run
// still reports its best design so far.
func (a *Annealer) Run(ctx context.Context) (*Result, error) {
	for {
		// Initialization always completes so that a cancelled run has a design to report
		if err := ctx.Err(); err != nil && a.phase == PhaseAnnealing {
			a.terminate(ReasonCancelled, err.Error())
			break
		}
		more, err := a.Step()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return a.Result()
}

// Result reports the best feasible design. It returns a NoFeasibleSolutionError
// when no feasible design was ever evaluated.
func (a *Annealer) Result() (*Result, error) {
	if a.best == nil {
		reason := string(a.reason)
		if a.detail != "" {
			reason += ": " + a.detail
		}
		return nil, &NoFeasibleSolutionError{Instances: 1, Iterations: a.iteration, Reason: reason}
	}
	return &Result{
		Sequence:   a.best.Sequence,
		Layup:      a.best.Sequence.String(),
		Evaluation: a.best.Evaluation,
		Score:      a.best.Score,
		Objective:  a.cfg.Objective.Name(),
		Seed:       a.seed,
		Iterations: a.iteration,
		Reason:     a.reason,
		Detail:     a.detail,
		Trace:      a.Trace(),
		Stats:      a.Stats(),
	}, nil
}
