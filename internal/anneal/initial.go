package anneal

import (
	"github.com/GoSim-25-26J-441/layup-core/internal/constraint"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

// maxInitialAttempts bounds the random designs drawn while looking for one
// that survives the design load.
const maxInitialAttempts = 256

// plyClass is a group of orientations whose genome counts move together:
// a single orientation, or a ±θ pair when balance is required.
type plyClass struct {
	orientations []models.Orientation
	lo, hi       int // count of units in the genome
}

func (c plyClass) size() int {
	return len(c.orientations)
}

// composer draws random genomes that satisfy the orientation rules by construction
type composer struct {
	checker  *constraint.Checker
	layout   Layout
	balance  bool
	template models.Ply
}

// classes derives the per-class genome count ranges for a genome of n plies.
// It returns false when some quota cannot be met at this length.
func (c *composer) classes(n int) ([]plyClass, bool) {
	f := c.layout.Factor()
	plies := n * f
	genomeRange := func(o models.Orientation) (int, int) {
		lo, hi := c.checker.QuotaRange(o, plies)
		return (lo + f - 1) / f, hi / f
	}

	allowed := c.checker.Orientations()
	isAllowed := make(map[models.Orientation]bool, len(allowed))
	for _, o := range allowed {
		isAllowed[o] = true
	}

	var out []plyClass
	for _, o := range allowed {
		lo, hi := genomeRange(o)
		if !c.balance || !o.IsOffAxis() {
			out = append(out, plyClass{orientations: []models.Orientation{o}, lo: lo, hi: hi})
			continue
		}
		opp := o.Opposite()
		if !isAllowed[opp] {
			if lo > 0 {
				return nil, false
			}
			continue
		}
		if o < 0 {
			continue // counted with its positive partner
		}
		olo, ohi := genomeRange(opp)
		out = append(out, plyClass{
			orientations: []models.Orientation{o, opp},
			lo:           max(lo, olo),
			hi:           min(hi, ohi),
		})
	}
	for _, cl := range out {
		if cl.hi < cl.lo {
			return nil, false
		}
	}
	return out, true
}

// reachable[k][s] reports whether classes k.. can contribute exactly s plies
func reachable(classes []plyClass, n int) [][]bool {
	r := make([][]bool, len(classes)+1)
	for k := range r {
		r[k] = make([]bool, n+1)
	}
	r[len(classes)][0] = true
	for k := len(classes) - 1; k >= 0; k-- {
		cl := classes[k]
		for s := 0; s <= n; s++ {
			for cnt := cl.lo; cnt <= cl.hi && cnt*cl.size() <= s; cnt++ {
				if r[k+1][s-cnt*cl.size()] {
					r[k][s] = true
					break
				}
			}
		}
	}
	return r
}

// feasibleLengths lists the genome lengths in [lo, hi] for which quotas can be met
func (c *composer) feasibleLengths(lo, hi int) []int {
	var out []int
	for n := lo; n <= hi; n++ {
		classes, ok := c.classes(n)
		if ok && reachable(classes, n)[0][n] {
			out = append(out, n)
		}
	}
	return out
}

// compose draws a random genome of n plies. Counts are chosen class by class among
// the values that still leave the remainder reachable, then the plies are shuffled.
func (c *composer) compose(n int, rng *utils.RandSource) (models.StackingSequence, bool) {
	classes, ok := c.classes(n)
	if !ok {
		return models.StackingSequence{}, false
	}
	r := reachable(classes, n)
	if !r[0][n] {
		return models.StackingSequence{}, false
	}

	var orientations []models.Orientation
	remaining := n
	for k, cl := range classes {
		var options []int
		for cnt := cl.lo; cnt <= cl.hi && cnt*cl.size() <= remaining; cnt++ {
			if r[k+1][remaining-cnt*cl.size()] {
				options = append(options, cnt)
			}
		}
		cnt := options[rng.Intn(len(options))]
		for i := 0; i < cnt; i++ {
			orientations = append(orientations, cl.orientations...)
		}
		remaining -= cnt * cl.size()
	}
	rng.Shuffle(len(orientations), func(i, j int) {
		orientations[i], orientations[j] = orientations[j], orientations[i]
	})

	plies := make([]models.Ply, len(orientations))
	for i, o := range orientations {
		plies[i] = c.template.WithOrientation(o)
	}
	return models.NewStackingSequence(plies...), true
}
