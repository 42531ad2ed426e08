package anneal

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/layup-core/internal/laminate"
)

// Objective turns an evaluation into a scalar score. Higher scores are better.
type Objective interface {
	// Score computes the objective value of a feasible evaluation
	Score(res laminate.EvaluationResult) float64

	// Name returns the name of the objective function.
	Name() string
}

// ObjectiveType represents the type of objective function
type ObjectiveType string

const (
	// ObjectiveSpecificStiffness maximizes ln(Deff) - w·ln(W)
	ObjectiveSpecificStiffness ObjectiveType = "specific_stiffness"
	// ObjectiveWeightedSum maximizes w·Deff/Dref - (1-w)·W/Wref
	ObjectiveWeightedSum ObjectiveType = "weighted_sum"
	// ObjectiveDeflectionWeight minimizes 1/D11 + w·W
	ObjectiveDeflectionWeight ObjectiveType = "deflection_weight"
)

// ObjectiveParams parameterizes NewObjective
type ObjectiveParams struct {
	// Weighting trades stiffness against weight; its meaning depends on the objective
	Weighting float64
	// StiffnessRef and WeightRef normalize weighted_sum; both must be positive there
	StiffnessRef float64
	WeightRef    float64
}

// NewObjective creates an objective function from a type string
func NewObjective(objType string, params ObjectiveParams) (Objective, error) {
	if math.IsNaN(params.Weighting) || math.IsInf(params.Weighting, 0) {
		return nil, fmt.Errorf("objective %s: weighting must be finite", objType)
	}
	switch ObjectiveType(objType) {
	case ObjectiveSpecificStiffness:
		return &SpecificStiffnessObjective{Weighting: params.Weighting}, nil
	case ObjectiveWeightedSum:
		if params.StiffnessRef <= 0 || params.WeightRef <= 0 {
			return nil, fmt.Errorf("objective %s: references must be positive (stiffness %g, weight %g)",
				objType, params.StiffnessRef, params.WeightRef)
		}
		if params.Weighting < 0 || params.Weighting > 1 {
			return nil, fmt.Errorf("objective %s: weighting must be in [0, 1], got %g", objType, params.Weighting)
		}
		return &WeightedSumObjective{
			Weighting:    params.Weighting,
			StiffnessRef: params.StiffnessRef,
			WeightRef:    params.WeightRef,
		}, nil
	case ObjectiveDeflectionWeight:
		return &DeflectionWeightObjective{Weighting: params.Weighting}, nil
	default:
		return nil, &UnknownObjectiveError{ObjectiveType: objType}
	}
}

// SpecificStiffnessObjective rewards bending stiffness per unit weight on a log scale,
// so that Weighting is the exponent of weight in Deff/W^w.
type SpecificStiffnessObjective struct {
	Weighting float64
}

func (o *SpecificStiffnessObjective) Name() string {
	return string(ObjectiveSpecificStiffness)
}

func (o *SpecificStiffnessObjective) Score(res laminate.EvaluationResult) float64 {
	if res.EffectiveStiffness <= 0 || res.ArealWeight <= 0 {
		return math.Inf(-1)
	}
	return math.Log(res.EffectiveStiffness) - o.Weighting*math.Log(res.ArealWeight)
}

// WeightedSumObjective blends normalized stiffness and normalized weight
type WeightedSumObjective struct {
	Weighting    float64
	StiffnessRef float64
	WeightRef    float64
}

func (o *WeightedSumObjective) Name() string {
	return string(ObjectiveWeightedSum)
}

func (o *WeightedSumObjective) Score(res laminate.EvaluationResult) float64 {
	return o.Weighting*res.EffectiveStiffness/o.StiffnessRef - (1-o.Weighting)*res.ArealWeight/o.WeightRef
}

// DeflectionWeightObjective penalizes compliance (1/D11) plus weighted areal weight
type DeflectionWeightObjective struct {
	Weighting float64
}

func (o *DeflectionWeightObjective) Name() string {
	return string(ObjectiveDeflectionWeight)
}

func (o *DeflectionWeightObjective) Score(res laminate.EvaluationResult) float64 {
	if res.BendingStiffness <= 0 {
		return math.Inf(-1)
	}
	return -(1/res.BendingStiffness + o.Weighting*res.ArealWeight)
}
