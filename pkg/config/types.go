package config

import (
	"time"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Problem is the complete description of one stacking-sequence optimization
type Problem struct {
	Materials              []models.MaterialProperties `yaml:"materials"`
	AllowedOrientations    []int                       `yaml:"allowed_orientations"`
	Ply                    PlySpec                     `yaml:"ply"`
	PlyCountBounds         CountRange                  `yaml:"ply_count_bounds"`
	OrientationQuotaBounds map[int]FractionRange       `yaml:"orientation_quota_bounds"`
	RequireSymmetry        *bool                       `yaml:"require_symmetry,omitempty"`
	RequireBalance         *bool                       `yaml:"require_balance,omitempty"`
	DesignLoad             float64                     `yaml:"design_load"`
	LoadCase               LoadCase                    `yaml:"load_case"`
	FailureCriterion       string                      `yaml:"failure_criterion"` // max_stress or tsai_wu
	Annealing              Annealing                   `yaml:"annealing"`
	Objective              Objective                   `yaml:"objective"`
	RandomSeed             int64                       `yaml:"random_seed"`
	Runs                   int                         `yaml:"runs"`
	Parallelism            int                         `yaml:"parallelism"`
	Timeout                string                      `yaml:"timeout,omitempty"` // e.g. "30s"
	SeedSequence           []models.Ply                `yaml:"seed_sequence,omitempty"`
}

// PlySpec describes the plies the search may create
type PlySpec struct {
	Material      string  `yaml:"material"`
	Thickness     float64 `yaml:"thickness"`      // m
	ThicknessStep float64 `yaml:"thickness_step"` // 0 disables thickness moves
	MinThickness  float64 `yaml:"min_thickness"`
	MaxThickness  float64 `yaml:"max_thickness"`
}

// CountRange is an inclusive integer range
type CountRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// FractionRange is an inclusive range of ply fractions in [0, 1]
type FractionRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// LoadCase selects how design_load is applied to the laminate
type LoadCase struct {
	Type  string  `yaml:"type"`  // moment or three_point
	Span  float64 `yaml:"span"`  // m, three_point only
	Width float64 `yaml:"width"` // m, three_point only
}

// Annealing holds the simulated-annealing parameters
type Annealing struct {
	InitialTemperature float64         `yaml:"initial_temperature"`
	CoolingRate        float64         `yaml:"cooling_rate"`
	CoolingInterval    int             `yaml:"cooling_interval"`
	CoolingSchedule    string          `yaml:"cooling_schedule"` // geometric or linear
	MinTemperature     *float64        `yaml:"min_temperature,omitempty"`
	MaxIterations      int             `yaml:"max_iterations"`
	InfeasiblePolicy   string          `yaml:"infeasible_policy"` // reject or penalty
	Penalty            *float64        `yaml:"penalty,omitempty"`
	TraceEvery         int             `yaml:"trace_every"`
	LogEvery           int             `yaml:"log_every"`
	MutationWeights    MutationWeights `yaml:"mutation_weights"`
	Convergence        Convergence     `yaml:"convergence"`
}

// MutationWeights are the relative probabilities of each move type
type MutationWeights struct {
	Swap      float64 `yaml:"swap"`
	Flip      float64 `yaml:"flip"`
	Pair      float64 `yaml:"pair"`
	Thickness float64 `yaml:"thickness"`
	Insert    float64 `yaml:"insert"`
	Delete    float64 `yaml:"delete"`
}

// IsZero reports whether no weight was configured
func (w MutationWeights) IsZero() bool {
	return w == MutationWeights{}
}

// Convergence configures optional early stopping on the best-score trace
type Convergence struct {
	Enabled                 bool    `yaml:"enabled"`
	NoImprovementIterations int     `yaml:"no_improvement_iterations"`
	PlateauIterations       int     `yaml:"plateau_iterations"`
	ScoreTolerance          float64 `yaml:"score_tolerance"`
	MinIterations           int     `yaml:"min_iterations"`
}

// Objective selects and parameterizes the score function
type Objective struct {
	Type           string   `yaml:"type"` // specific_stiffness, weighted_sum or deflection_weight
	ScoreWeighting *float64 `yaml:"score_weighting,omitempty"`
	StiffnessRef   float64  `yaml:"stiffness_ref"` // 0 uses a 0° laminate of max plies
	WeightRef      float64  `yaml:"weight_ref"`    // 0 uses a 0° laminate of max plies
}

// Symmetric reports whether mirror symmetry is required (default true)
func (p *Problem) Symmetric() bool {
	return p.RequireSymmetry == nil || *p.RequireSymmetry
}

// Balanced reports whether +θ/-θ balance is required (default true)
func (p *Problem) Balanced() bool {
	return p.RequireBalance == nil || *p.RequireBalance
}

// StopTemperature returns min_temperature. An explicit 0 is kept.
func (a Annealing) StopTemperature() float64 {
	if a.MinTemperature == nil {
		return DefaultMinTemperature
	}
	return *a.MinTemperature
}

// PenaltyPerViolation returns the score penalty per violated rule
func (a Annealing) PenaltyPerViolation() float64 {
	if a.Penalty == nil {
		return DefaultPenalty
	}
	return *a.Penalty
}

// Weighting returns the configured score weighting
func (o Objective) Weighting() float64 {
	if o.ScoreWeighting == nil {
		return defaultScoreWeighting(o.Type)
	}
	return *o.ScoreWeighting
}

// GetTimeout parses the timeout string. An empty timeout means none.
func (p *Problem) GetTimeout() (time.Duration, error) {
	if p.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(p.Timeout)
}

// MaterialTable builds the read-only material table for the problem
func (p *Problem) MaterialTable() (*models.MaterialTable, error) {
	return models.NewMaterialTable(p.Materials...)
}

// Orientations returns the allowed orientations as model values
func (p *Problem) Orientations() []models.Orientation {
	out := make([]models.Orientation, len(p.AllowedOrientations))
	for i, o := range p.AllowedOrientations {
		out[i] = models.Orientation(o).Normalize()
	}
	return out
}

// Seed returns the configured seed sequence, or an empty sequence
func (p *Problem) Seed() models.StackingSequence {
	return models.NewStackingSequence(p.SeedSequence...)
}

// MaterialFile is the standalone material table file format
type MaterialFile struct {
	Materials []models.MaterialProperties `yaml:"materials"`
}
