package laminate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// LoadCaseType selects how the design load is applied
type LoadCaseType string

const (
	// PureMoment applies the design load as a bending moment resultant Mx in N·m/m
	PureMoment LoadCaseType = "moment"
	// ThreePoint applies the design load as a center force P in N on a simply
	// supported strip of the given span and width
	ThreePoint LoadCaseType = "three_point"
)

// LoadCase describes the bending load applied to the laminate
type LoadCase struct {
	Type  LoadCaseType `json:"type"`
	Span  float64      `json:"span,omitempty"`
	Width float64      `json:"width,omitempty"`
}

// moment returns the bending moment resultant Mx produced by designLoad
func (lc LoadCase) moment(designLoad float64) (float64, error) {
	switch lc.Type {
	case PureMoment, "":
		return designLoad, nil
	case ThreePoint:
		if !(lc.Span > 0) || !(lc.Width > 0) {
			return 0, fmt.Errorf("%w: three_point needs positive span and width", ErrInvalidLoad)
		}
		return designLoad * lc.Span / (4 * lc.Width), nil
	default:
		return 0, fmt.Errorf("%w: unknown load case %q", ErrInvalidLoad, lc.Type)
	}
}

// EvaluationResult is derived fresh per evaluation and never mutated.
type EvaluationResult struct {
	// BendingStiffness is D11 in N·m
	BendingStiffness float64 `json:"bending_stiffness"`
	// EffectiveStiffness is 1/d11 from the inverted ABD matrix. It includes
	// bending-twisting and extension-bending coupling.
	EffectiveStiffness float64 `json:"effective_stiffness"`
	// ArealWeight is the mass per unit area in kg/m²
	ArealWeight float64 `json:"areal_weight"`
	Thickness   float64 `json:"thickness"`
	// FailureMargin is the minimum strength ratio over all plies and modes.
	// Values below 1 predict failure before the design load is reached.
	FailureMargin float64 `json:"failure_margin"`
	CriticalPly   int     `json:"critical_ply"`
	FailureMode   string  `json:"failure_mode"`
	// PlyMargins holds the minimum strength ratio of each ply
	PlyMargins []float64 `json:"ply_margins"`
	Curvature  float64   `json:"curvature"`
	// Deflection is the midspan deflection in m for the three-point load case
	Deflection float64 `json:"deflection,omitempty"`
}

// Evaluator is a pure laminate evaluator. The zero Criterion is max stress and
// the zero LoadCase is a pure moment.
type Evaluator struct {
	Materials *models.MaterialTable
	Criterion Criterion
	LoadCase  LoadCase
}

// Evaluate computes stiffness, weight and the first-ply-failure margin of seq
// under a pure bending moment designLoad using the maximum stress criterion.
func Evaluate(seq models.StackingSequence, materials *models.MaterialTable, designLoad float64) (EvaluationResult, error) {
	return Evaluator{Materials: materials}.Evaluate(seq, designLoad)
}

// Evaluate computes the evaluation result of seq under designLoad.
func (e Evaluator) Evaluate(seq models.StackingSequence, designLoad float64) (EvaluationResult, error) {
	lam, err := ABD(seq, e.Materials)
	if err != nil {
		return EvaluationResult{}, err
	}
	if !(designLoad > 0) || math.IsInf(designLoad, 1) {
		return EvaluationResult{}, fmt.Errorf("%w: %g must be positive", ErrInvalidLoad, designLoad)
	}
	mx, err := e.LoadCase.moment(designLoad)
	if err != nil {
		return EvaluationResult{}, err
	}

	compliance, err := lam.Compliance()
	if err != nil {
		return EvaluationResult{}, err
	}
	d11 := compliance.At(3, 3)
	if !(d11 > 0) {
		return EvaluationResult{}, fmt.Errorf("%w: non-positive bending compliance", ErrInvalidSequence)
	}

	load := mat.NewVecDense(6, []float64{0, 0, 0, mx, 0, 0})
	var response mat.VecDense
	response.MulVec(compliance, load)

	res := EvaluationResult{
		BendingStiffness:   math.Max(lam.D.At(0, 0), 0),
		EffectiveStiffness: 1 / d11,
		ArealWeight:        lam.ArealWeight(),
		Thickness:          lam.Thickness(),
		Curvature:          response.AtVec(3),
		CriticalPly:        -1,
		FailureMode:        ModeNone,
		FailureMargin:      unboundedStrengthRatio,
		PlyMargins:         make([]float64, seq.Len()),
	}
	if e.LoadCase.Type == ThreePoint {
		res.Deflection = designLoad * math.Pow(e.LoadCase.Span, 3) * d11 / (48 * e.LoadCase.Width)
	}

	criterion := e.Criterion
	if criterion == "" {
		criterion = MaxStress
	}
	for k := 0; k < seq.Len(); k++ {
		ply := seq.At(k)
		m, _ := e.Materials.Get(ply.MaterialID)
		plyMargin := unboundedStrengthRatio
		for _, z := range [2]float64{lam.z[k], lam.z[k+1]} {
			var strain [3]float64
			for i := 0; i < 3; i++ {
				strain[i] = response.AtVec(i) + z*response.AtVec(i+3)
			}
			var stress [3]float64
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					stress[i] += lam.qbar[k].At(i, j) * strain[j]
				}
			}
			ratio, mode := strengthRatio(criterion, m, toMaterialAxes(stress, ply.Orientation))
			if ratio < plyMargin {
				plyMargin = ratio
			}
			if ratio < res.FailureMargin {
				res.FailureMargin, res.CriticalPly, res.FailureMode = ratio, k, mode
			}
		}
		res.PlyMargins[k] = plyMargin
	}

	return res, nil
}

// Feasible reports whether the laminate survives the design load
func (r EvaluationResult) Feasible() bool {
	return r.FailureMargin >= 1
}
