package constraint

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

// IsSymmetric reports whether seq equals its own reverse, comparing orientation,
// thickness and material pairwise from each face.
func IsSymmetric(seq models.StackingSequence) bool {
	return seq.IsSymmetric()
}

// IsBalanced reports whether every off-axis angle +θ has as many plies as -θ.
func IsBalanced(seq models.StackingSequence) bool {
	return len(unbalancedAngles(seq)) == 0
}

func unbalancedAngles(seq models.StackingSequence) []models.Orientation {
	counts := seq.OrientationCounts()
	seen := make(map[models.Orientation]bool)
	var out []models.Orientation
	for _, o := range models.SortedOrientations(counts) {
		if !o.IsOffAxis() {
			continue
		}
		plus := o
		if plus < 0 {
			plus = plus.Opposite()
		}
		if seen[plus] {
			continue
		}
		seen[plus] = true
		if counts[plus] != counts[plus.Opposite()] {
			out = append(out, plus)
		}
	}
	return out
}

// symmetryRule requires a mirrored stack
type symmetryRule struct {
	enabled bool
}

func (r symmetryRule) Name() string  { return "symmetry" }
func (r symmetryRule) Enabled() bool { return r.enabled }

func (r symmetryRule) Check(seq models.StackingSequence) []Violation {
	if seq.Len()%2 != 0 {
		// A mirrored stack always has an even ply count
		return []Violation{{Kind: Asymmetric, Detail: fmt.Sprintf("odd ply count %d cannot be mirrored", seq.Len())}}
	}
	if IsSymmetric(seq) {
		return nil
	}
	for i := 0; i < seq.Len()/2; i++ {
		j := seq.Len() - 1 - i
		if !seq.At(i).SameAs(seq.At(j)) {
			return []Violation{{
				Kind:   Asymmetric,
				Detail: fmt.Sprintf("ply %d (%s) does not mirror ply %d (%s)", i, seq.At(i), j, seq.At(j)),
			}}
		}
	}
	return []Violation{{Kind: Asymmetric, Detail: "sequence is not symmetric"}}
}

// balanceRule requires equal +θ and -θ counts
type balanceRule struct {
	enabled bool
}

func (r balanceRule) Name() string  { return "balance" }
func (r balanceRule) Enabled() bool { return r.enabled }

func (r balanceRule) Check(seq models.StackingSequence) []Violation {
	var out []Violation
	for _, o := range unbalancedAngles(seq) {
		out = append(out, Violation{
			Kind: Unbalanced,
			Detail: fmt.Sprintf("%d plies at %d° but %d at %d°",
				seq.CountOrientation(o), int(o), seq.CountOrientation(o.Opposite()), int(o.Opposite())),
		})
	}
	return out
}

// quotaRule bounds the fraction of plies per orientation
type quotaRule struct {
	quotas map[models.Orientation]Bounds
}

func (r quotaRule) Name() string  { return "orientation_quota" }
func (r quotaRule) Enabled() bool { return len(r.quotas) > 0 }

func (r quotaRule) Check(seq models.StackingSequence) []Violation {
	n := seq.Len()
	if n == 0 {
		return nil
	}
	var out []Violation
	orientations := make(map[models.Orientation]int, len(r.quotas))
	for o := range r.quotas {
		orientations[o] = 0
	}
	for _, o := range models.SortedOrientations(orientations) {
		b := r.quotas[o]
		count := seq.CountOrientation(o)
		frac := float64(count) / float64(n)
		switch {
		case frac < b.Min-utils.Tolerance:
			out = append(out, Violation{
				Kind:   QuotaBelowMin,
				Detail: fmt.Sprintf("%d° is %d/%d plies (%.1f%%), below %.1f%%", int(o), count, n, 100*frac, 100*b.Min),
			})
		case frac > b.Max+utils.Tolerance:
			out = append(out, Violation{
				Kind:   QuotaAboveMax,
				Detail: fmt.Sprintf("%d° is %d/%d plies (%.1f%%), above %.1f%%", int(o), count, n, 100*frac, 100*b.Max),
			})
		}
	}
	return out
}

// plyCountRule bounds the total ply count
type plyCountRule struct {
	bounds CountBounds
}

func (r plyCountRule) Name() string  { return "ply_count" }
func (r plyCountRule) Enabled() bool { return true }

func (r plyCountRule) Check(seq models.StackingSequence) []Violation {
	if n := seq.Len(); n < r.bounds.Min || n > r.bounds.Max {
		return []Violation{{
			Kind:   PlyCountOutOfBounds,
			Detail: fmt.Sprintf("%d plies outside [%d, %d]", n, r.bounds.Min, r.bounds.Max),
		}}
	}
	return nil
}

// orientationRule restricts plies to the allowed angle set
type orientationRule struct {
	allowed map[models.Orientation]bool
}

func (r orientationRule) Name() string  { return "allowed_orientations" }
func (r orientationRule) Enabled() bool { return len(r.allowed) > 0 }

func (r orientationRule) Check(seq models.StackingSequence) []Violation {
	for i := 0; i < seq.Len(); i++ {
		if o := seq.At(i).Orientation.Normalize(); !r.allowed[o] {
			return []Violation{{
				Kind:   DisallowedOrientation,
				Detail: fmt.Sprintf("ply %d has orientation %d°, which is not allowed", i, int(o)),
			}}
		}
	}
	return nil
}

// thicknessRule bounds every ply thickness
type thicknessRule struct {
	bounds Bounds
}

func (r thicknessRule) Name() string  { return "ply_thickness" }
func (r thicknessRule) Enabled() bool { return r.bounds.Max > 0 }

func (r thicknessRule) Check(seq models.StackingSequence) []Violation {
	// Absolute tolerance well below any practical thickness step
	const tol = 1e-12
	for i := 0; i < seq.Len(); i++ {
		t := seq.At(i).Thickness
		if t < r.bounds.Min-tol || t > r.bounds.Max+tol || math.IsNaN(t) {
			return []Violation{{
				Kind:   ThicknessOutOfBounds,
				Detail: fmt.Sprintf("ply %d thickness %g outside [%g, %g]", i, t, r.bounds.Min, r.bounds.Max),
			}}
		}
	}
	return nil
}
