package laminate

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Criterion selects the first-ply-failure criterion
type Criterion string

const (
	// MaxStress compares each ply-axis stress component with its own allowable
	MaxStress Criterion = "max_stress"
	// TsaiWu uses the interactive Tsai-Wu quadratic criterion
	TsaiWu Criterion = "tsai_wu"
)

// ParseCriterion maps a configuration name to a Criterion
func ParseCriterion(name string) (Criterion, error) {
	switch Criterion(name) {
	case MaxStress, TsaiWu:
		return Criterion(name), nil
	case "":
		return MaxStress, nil
	default:
		return "", fmt.Errorf("unknown failure criterion: %s", name)
	}
}

// Failure modes reported for the critical ply
const (
	ModeFiberTension       = "fiber_tension"
	ModeFiberCompression   = "fiber_compression"
	ModeMatrixTension      = "matrix_tension"
	ModeMatrixCompression  = "matrix_compression"
	ModeShear              = "in_plane_shear"
	ModeTsaiWu             = "tsai_wu"
	ModeNone               = "none"
	unboundedStrengthRatio = math.MaxFloat64
)

// strengthRatio returns the factor by which stress (σ1, σ2, τ12) can be scaled
// before the ply fails, and the governing mode.
func strengthRatio(c Criterion, m models.MaterialProperties, stress [3]float64) (float64, string) {
	if c == TsaiWu {
		return tsaiWuRatio(m, stress), ModeTsaiWu
	}
	return maxStressRatio(m, stress)
}

func maxStressRatio(m models.MaterialProperties, stress [3]float64) (float64, string) {
	s1, s2, t12 := stress[0], stress[1], math.Abs(stress[2])
	ratio, mode := unboundedStrengthRatio, ModeNone
	check := func(allowable, applied float64, name string) {
		if applied <= 0 {
			return
		}
		if r := allowable / applied; r < ratio {
			ratio, mode = r, name
		}
	}
	if s1 >= 0 {
		check(m.Xt, s1, ModeFiberTension)
	} else {
		check(m.Xc, -s1, ModeFiberCompression)
	}
	if s2 >= 0 {
		check(m.Yt, s2, ModeMatrixTension)
	} else {
		check(m.Yc, -s2, ModeMatrixCompression)
	}
	check(m.S, t12, ModeShear)
	return ratio, mode
}

// tsaiWuRatio solves a·R² + b·R = 1 for the positive root R.
func tsaiWuRatio(m models.MaterialProperties, stress [3]float64) float64 {
	s1, s2, t12 := stress[0], stress[1], stress[2]
	f1 := 1/m.Xt - 1/m.Xc
	f2 := 1/m.Yt - 1/m.Yc
	f11 := 1 / (m.Xt * m.Xc)
	f22 := 1 / (m.Yt * m.Yc)
	f66 := 1 / (m.S * m.S)
	f12 := -0.5 * math.Sqrt(f11*f22)

	a := f11*s1*s1 + f22*s2*s2 + f66*t12*t12 + 2*f12*s1*s2
	b := f1*s1 + f2*s2

	switch {
	case a > 0:
		return (-b + math.Sqrt(b*b+4*a)) / (2 * a)
	case b > 0:
		return 1 / b
	default:
		return unboundedStrengthRatio
	}
}
