package anneal

import (
	"fmt"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Layout maps between the genome the mutator edits and the full laminate.
// A symmetric layout stores only the plies from the bottom face to the midplane
// and mirrors them, so no move can break symmetry.
type Layout struct {
	Symmetric bool
}

// Factor is the number of laminate plies per genome ply
func (l Layout) Factor() int {
	if l.Symmetric {
		return 2
	}
	return 1
}

// Expand builds the full laminate from a genome
func (l Layout) Expand(genome models.StackingSequence) models.StackingSequence {
	if l.Symmetric {
		return genome.Mirror()
	}
	return genome
}

// Genome extracts the editable part of a full laminate
func (l Layout) Genome(full models.StackingSequence) (models.StackingSequence, error) {
	if !l.Symmetric {
		return full, nil
	}
	if full.Len()%2 != 0 || !full.IsSymmetric() {
		return models.StackingSequence{}, fmt.Errorf("sequence %s is not an even symmetric laminate", full)
	}
	return full.Half(), nil
}

// GenomeBounds converts laminate ply-count bounds into genome length bounds.
// The lower bound is never below one ply.
func (l Layout) GenomeBounds(minPlies, maxPlies int) (lo, hi int) {
	f := l.Factor()
	lo = (minPlies + f - 1) / f
	hi = maxPlies / f
	if lo < 1 {
		lo = 1
	}
	return lo, hi
}
