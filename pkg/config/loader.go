package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// LoadProblem loads and parses a problem file
func LoadProblem(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file %s: %w", path, err)
	}
	p, err := ParseProblemYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse problem file %s: %w", path, err)
	}
	return p, nil
}

// LoadProblemWithMaterials loads a problem whose material table comes from a
// separate file. The file's materials replace any the problem defines.
func LoadProblemWithMaterials(problemPath, materialsPath string) (*Problem, error) {
	data, err := os.ReadFile(problemPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file %s: %w", problemPath, err)
	}
	var p Problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse problem file %s: %w", problemPath, err)
	}

	data, err = os.ReadFile(materialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read materials file %s: %w", materialsPath, err)
	}
	mf, err := ParseMaterialsYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse materials file %s: %w", materialsPath, err)
	}
	p.Materials = mf.Materials

	ApplyDefaults(&p)
	if err := Validate(&p); err != nil {
		return nil, fmt.Errorf("invalid problem %s: %w", problemPath, err)
	}
	return &p, nil
}

// LoadMaterials loads a standalone material table file
func LoadMaterials(path string) (*models.MaterialTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read materials file %s: %w", path, err)
	}
	mf, err := ParseMaterialsYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse materials file %s: %w", path, err)
	}
	return models.NewMaterialTable(mf.Materials...)
}

// Validate performs validation on a problem with defaults applied
func Validate(p *Problem) error {
	if err := validateMaterials(p.Materials); err != nil {
		return fmt.Errorf("materials validation failed: %w", err)
	}
	materialIDs := make(map[string]bool, len(p.Materials))
	for _, m := range p.Materials {
		materialIDs[m.ID] = true
	}

	allowed := make(map[int]bool, len(p.AllowedOrientations))
	for _, o := range p.AllowedOrientations {
		if o <= -90 || o > 90 {
			return fmt.Errorf("allowed_orientations: %d is outside (-90, 90]", o)
		}
		if allowed[o] {
			return fmt.Errorf("allowed_orientations: duplicate orientation %d", o)
		}
		allowed[o] = true
	}
	if len(allowed) == 0 {
		return fmt.Errorf("allowed_orientations: at least one orientation must be defined")
	}
	if p.Balanced() {
		for o := range allowed {
			opp := int(models.Orientation(o).Opposite())
			if opp != o && !allowed[opp] {
				return fmt.Errorf("allowed_orientations: %d has no opposite %d, which require_balance needs", o, opp)
			}
		}
	}

	if err := validatePly(&p.Ply, materialIDs); err != nil {
		return fmt.Errorf("ply validation failed: %w", err)
	}

	if p.PlyCountBounds.Min <= 0 {
		return fmt.Errorf("ply_count_bounds.min must be positive, got %d", p.PlyCountBounds.Min)
	}
	if p.PlyCountBounds.Max < p.PlyCountBounds.Min {
		return fmt.Errorf("ply_count_bounds.max %d is below min %d", p.PlyCountBounds.Max, p.PlyCountBounds.Min)
	}

	for o, r := range p.OrientationQuotaBounds {
		if !allowed[o] {
			return fmt.Errorf("orientation_quota_bounds: orientation %d is not in allowed_orientations", o)
		}
		if r.Min < 0 || r.Max > 1 || r.Min > r.Max {
			return fmt.Errorf("orientation_quota_bounds[%d]: need 0 <= min <= max <= 1, got [%g, %g]", o, r.Min, r.Max)
		}
	}

	if !(p.DesignLoad > 0) || math.IsInf(p.DesignLoad, 0) {
		return fmt.Errorf("design_load must be positive, got %g", p.DesignLoad)
	}
	if err := validateLoadCase(&p.LoadCase); err != nil {
		return fmt.Errorf("load_case validation failed: %w", err)
	}

	switch p.FailureCriterion {
	case CriterionMaxStress, CriterionTsaiWu:
	default:
		return fmt.Errorf("invalid failure_criterion: %s (must be max_stress or tsai_wu)", p.FailureCriterion)
	}

	if err := validateAnnealing(&p.Annealing); err != nil {
		return fmt.Errorf("annealing validation failed: %w", err)
	}
	if err := validateObjective(&p.Objective); err != nil {
		return fmt.Errorf("objective validation failed: %w", err)
	}

	if p.Runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", p.Runs)
	}
	if p.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive, got %d", p.Parallelism)
	}
	if d, err := p.GetTimeout(); err != nil {
		return fmt.Errorf("invalid timeout %s: %w", p.Timeout, err)
	} else if d < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", p.Timeout)
	}

	for i, ply := range p.SeedSequence {
		if !materialIDs[ply.MaterialID] {
			return fmt.Errorf("seed_sequence[%d]: unknown material %s", i, ply.MaterialID)
		}
		if !(ply.Thickness > 0) {
			return fmt.Errorf("seed_sequence[%d]: thickness must be positive, got %g", i, ply.Thickness)
		}
	}

	return nil
}

// validateMaterials validates each material and rejects duplicate ids
func validateMaterials(materials []models.MaterialProperties) error {
	if len(materials) == 0 {
		return fmt.Errorf("at least one material must be defined")
	}
	seen := make(map[string]bool, len(materials))
	for _, m := range materials {
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate material id: %s", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// validatePly validates the ply template and thickness bounds
func validatePly(ply *PlySpec, materialIDs map[string]bool) error {
	if !materialIDs[ply.Material] {
		return fmt.Errorf("ply.material %s is not a defined material", ply.Material)
	}
	if !(ply.Thickness > 0) {
		return fmt.Errorf("ply.thickness must be positive, got %g", ply.Thickness)
	}
	if ply.ThicknessStep < 0 {
		return fmt.Errorf("ply.thickness_step cannot be negative, got %g", ply.ThicknessStep)
	}
	if !(ply.MinThickness > 0) || ply.MaxThickness < ply.MinThickness {
		return fmt.Errorf("ply thickness bounds invalid: min_thickness %g, max_thickness %g", ply.MinThickness, ply.MaxThickness)
	}
	if ply.Thickness < ply.MinThickness || ply.Thickness > ply.MaxThickness {
		return fmt.Errorf("ply.thickness %g is outside [min_thickness, max_thickness] = [%g, %g]", ply.Thickness, ply.MinThickness, ply.MaxThickness)
	}
	return nil
}

// validateLoadCase validates the load case
func validateLoadCase(lc *LoadCase) error {
	switch lc.Type {
	case LoadCaseMoment:
		return nil
	case LoadCaseThreePoint:
		if !(lc.Span > 0) {
			return fmt.Errorf("span must be positive for three_point, got %g", lc.Span)
		}
		if !(lc.Width > 0) {
			return fmt.Errorf("width must be positive for three_point, got %g", lc.Width)
		}
		return nil
	default:
		return fmt.Errorf("invalid type: %s (must be moment or three_point)", lc.Type)
	}
}

// validateAnnealing validates the annealing parameters
func validateAnnealing(a *Annealing) error {
	if !(a.InitialTemperature > 0) {
		return fmt.Errorf("initial_temperature must be positive, got %g", a.InitialTemperature)
	}
	if !(a.CoolingRate > 0 && a.CoolingRate < 1) {
		return fmt.Errorf("cooling_rate must be in (0, 1), got %g", a.CoolingRate)
	}
	if a.CoolingInterval <= 0 {
		return fmt.Errorf("cooling_interval must be positive, got %d", a.CoolingInterval)
	}
	switch a.CoolingSchedule {
	case ScheduleGeometric, ScheduleLinear:
	default:
		return fmt.Errorf("invalid cooling_schedule: %s (must be geometric or linear)", a.CoolingSchedule)
	}
	if t := a.StopTemperature(); t < 0 || t >= a.InitialTemperature {
		return fmt.Errorf("min_temperature must be in [0, initial_temperature), got %g", t)
	}
	if a.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", a.MaxIterations)
	}
	switch a.InfeasiblePolicy {
	case PolicyReject, PolicyPenalty:
	default:
		return fmt.Errorf("invalid infeasible_policy: %s (must be reject or penalty)", a.InfeasiblePolicy)
	}
	if p := a.PenaltyPerViolation(); !(p > 0) {
		return fmt.Errorf("penalty must be positive, got %g", p)
	}
	if a.TraceEvery < 0 || a.LogEvery < 0 {
		return fmt.Errorf("trace_every and log_every cannot be negative")
	}
	w := a.MutationWeights
	for name, v := range map[string]float64{
		"swap": w.Swap, "flip": w.Flip, "pair": w.Pair,
		"thickness": w.Thickness, "insert": w.Insert, "delete": w.Delete,
	} {
		if v < 0 {
			return fmt.Errorf("mutation_weights.%s cannot be negative, got %g", name, v)
		}
	}
	c := a.Convergence
	if c.NoImprovementIterations < 0 || c.PlateauIterations < 0 || c.MinIterations < 0 || c.ScoreTolerance < 0 {
		return fmt.Errorf("convergence parameters cannot be negative")
	}
	return nil
}

// validateObjective validates the objective settings
func validateObjective(o *Objective) error {
	switch o.Type {
	case ObjectiveSpecificStiffness, ObjectiveDeflectionWeight:
		if o.Weighting() < 0 {
			return fmt.Errorf("score_weighting cannot be negative, got %g", o.Weighting())
		}
	case ObjectiveWeightedSum:
		if w := o.Weighting(); w < 0 || w > 1 {
			return fmt.Errorf("score_weighting must be in [0, 1] for weighted_sum, got %g", w)
		}
	default:
		return fmt.Errorf("invalid type: %s (must be specific_stiffness, weighted_sum or deflection_weight)", o.Type)
	}
	if o.StiffnessRef < 0 || o.WeightRef < 0 {
		return fmt.Errorf("stiffness_ref and weight_ref cannot be negative")
	}
	return nil
}
