package config

import "github.com/GoSim-25-26J-441/layup-core/pkg/models"

// Defaults used when a key is absent
const (
	DefaultPlyThickness       = 0.001
	DefaultMinPlies           = 8
	DefaultMaxPlies           = 16
	DefaultQuotaFraction      = 0.1
	DefaultInitialTemperature = 1.0
	DefaultCoolingRate        = 0.999
	DefaultMinTemperature     = 1e-5
	DefaultMaxIterations      = 10000
	DefaultPenalty            = 10.0
	DefaultTraceEvery         = 10
	DefaultLogEvery           = 1000

	LoadCaseMoment     = "moment"
	LoadCaseThreePoint = "three_point"

	CriterionMaxStress = "max_stress"
	CriterionTsaiWu    = "tsai_wu"

	ScheduleGeometric = "geometric"
	ScheduleLinear    = "linear"

	PolicyReject  = "reject"
	PolicyPenalty = "penalty"

	ObjectiveSpecificStiffness = "specific_stiffness"
	ObjectiveWeightedSum       = "weighted_sum"
	ObjectiveDeflectionWeight  = "deflection_weight"
)

// DefaultOrientations is the conventional 0/±45/90 family
var DefaultOrientations = []int{0, 45, -45, 90}

func defaultScoreWeighting(objective string) float64 {
	if objective == ObjectiveWeightedSum {
		return 0.5
	}
	return 1.0
}

// DefaultMutationWeights gives every move type the same probability
func DefaultMutationWeights() MutationWeights {
	return MutationWeights{Swap: 1, Flip: 1, Pair: 1, Thickness: 1, Insert: 1, Delete: 1}
}

// ApplyDefaults fills every absent key. It never overrides a configured value.
func ApplyDefaults(p *Problem) {
	if len(p.Materials) == 0 {
		p.Materials = []models.MaterialProperties{models.DefaultMaterial()}
	}
	if len(p.AllowedOrientations) == 0 {
		p.AllowedOrientations = append([]int(nil), DefaultOrientations...)
	}

	if p.Ply.Material == "" {
		p.Ply.Material = p.Materials[0].ID
	}
	if p.Ply.Thickness == 0 {
		p.Ply.Thickness = DefaultPlyThickness
	}
	if p.Ply.MinThickness == 0 {
		p.Ply.MinThickness = p.Ply.Thickness
	}
	if p.Ply.MaxThickness == 0 {
		p.Ply.MaxThickness = p.Ply.Thickness
	}

	for i, ply := range p.SeedSequence {
		if ply.MaterialID == "" {
			ply.MaterialID = p.Ply.Material
		}
		if ply.Thickness == 0 {
			ply.Thickness = p.Ply.Thickness
		}
		p.SeedSequence[i] = models.NewPly(ply.Orientation, ply.Thickness, ply.MaterialID)
	}

	if p.PlyCountBounds.Min == 0 && p.PlyCountBounds.Max == 0 {
		p.PlyCountBounds = CountRange{Min: DefaultMinPlies, Max: DefaultMaxPlies}
	}
	if p.OrientationQuotaBounds == nil {
		p.OrientationQuotaBounds = make(map[int]FractionRange, len(p.AllowedOrientations))
		for _, o := range p.AllowedOrientations {
			p.OrientationQuotaBounds[o] = FractionRange{Min: DefaultQuotaFraction, Max: 1}
		}
	}

	if p.LoadCase.Type == "" {
		p.LoadCase.Type = LoadCaseMoment
	}
	if p.FailureCriterion == "" {
		p.FailureCriterion = CriterionMaxStress
	}

	a := &p.Annealing
	if a.InitialTemperature == 0 {
		a.InitialTemperature = DefaultInitialTemperature
	}
	if a.CoolingRate == 0 {
		a.CoolingRate = DefaultCoolingRate
	}
	if a.CoolingInterval == 0 {
		a.CoolingInterval = 1
	}
	if a.CoolingSchedule == "" {
		a.CoolingSchedule = ScheduleGeometric
	}
	if a.MinTemperature == nil {
		v := DefaultMinTemperature
		a.MinTemperature = &v
	}
	if a.MaxIterations == 0 {
		a.MaxIterations = DefaultMaxIterations
	}
	if a.InfeasiblePolicy == "" {
		a.InfeasiblePolicy = PolicyReject
	}
	if a.Penalty == nil {
		v := DefaultPenalty
		a.Penalty = &v
	}
	if a.TraceEvery == 0 {
		a.TraceEvery = DefaultTraceEvery
	}
	if a.LogEvery == 0 {
		a.LogEvery = DefaultLogEvery
	}
	if a.MutationWeights.IsZero() {
		a.MutationWeights = DefaultMutationWeights()
	}
	if a.Convergence.Enabled {
		if a.Convergence.NoImprovementIterations == 0 && a.Convergence.PlateauIterations == 0 {
			a.Convergence.NoImprovementIterations = a.MaxIterations / 5
		}
		if a.Convergence.ScoreTolerance == 0 {
			a.Convergence.ScoreTolerance = 1e-9
		}
	}

	if p.Objective.Type == "" {
		p.Objective.Type = ObjectiveSpecificStiffness
	}
	if p.Runs == 0 {
		p.Runs = 1
	}
	if p.Parallelism == 0 {
		p.Parallelism = p.Runs
	}
}
