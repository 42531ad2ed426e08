package anneal

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

// MoveKind names one atomic mutation
type MoveKind string

const (
	// MoveSwap exchanges two different plies
	MoveSwap MoveKind = "swap"
	// MoveFlip changes one ply to another allowed orientation
	MoveFlip MoveKind = "flip"
	// MovePair turns two 0/90-type plies into a +θ/-θ pair or back
	MovePair MoveKind = "pair"
	// MoveThickness changes one ply thickness by one step
	MoveThickness MoveKind = "thickness"
	// MoveInsert adds a ply (or a ±θ pair when balance is required)
	MoveInsert MoveKind = "insert"
	// MoveDelete removes a ply (and its opposite when balance is required)
	MoveDelete MoveKind = "delete"
)

// MoveKinds lists every move in selection order
var MoveKinds = []MoveKind{MoveSwap, MoveFlip, MovePair, MoveThickness, MoveInsert, MoveDelete}

// MutatorConfig configures a Mutator
type MutatorConfig struct {
	Orientations []models.Orientation
	Layout       Layout
	// MinPlies and MaxPlies bound the full laminate
	MinPlies int
	MaxPlies int
	Balance  bool
	// Template provides material and thickness for inserted plies
	Template      models.Ply
	ThicknessStep float64
	MinThickness  float64
	MaxThickness  float64
	Weights       map[MoveKind]float64
}

// Mutator proposes neighbor genomes. It holds no mutable state; all randomness
// comes from the source passed to Propose.
type Mutator struct {
	cfg      MutatorConfig
	minLen   int
	maxLen   int
	allowed  []models.Orientation
	unsigned []models.Orientation
	angled   []models.Orientation // positive member of each allowed ±θ pair
	weights  []float64
}

// NewMutator validates the configuration and builds a Mutator
func NewMutator(cfg MutatorConfig) (*Mutator, error) {
	if len(cfg.Orientations) == 0 {
		return nil, fmt.Errorf("mutator needs at least one orientation")
	}
	m := &Mutator{cfg: cfg}
	m.minLen, m.maxLen = cfg.Layout.GenomeBounds(cfg.MinPlies, cfg.MaxPlies)
	if m.maxLen < m.minLen {
		return nil, fmt.Errorf("ply count bounds [%d, %d] admit no %d-ply genome", cfg.MinPlies, cfg.MaxPlies, cfg.Layout.Factor())
	}

	seen := make(map[models.Orientation]bool)
	for _, o := range cfg.Orientations {
		o = o.Normalize()
		if seen[o] {
			continue
		}
		seen[o] = true
		m.allowed = append(m.allowed, o)
		if !o.IsOffAxis() {
			m.unsigned = append(m.unsigned, o)
		}
	}
	for _, o := range m.allowed {
		if o.IsOffAxis() && o > 0 && seen[o.Opposite()] {
			m.angled = append(m.angled, o)
		}
	}

	m.weights = make([]float64, len(MoveKinds))
	for i, k := range MoveKinds {
		w, ok := cfg.Weights[k]
		if cfg.Weights == nil {
			w, ok = 1, true
		}
		if !ok {
			continue
		}
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("move %s: weight must be non-negative, got %g", k, w)
		}
		m.weights[i] = w
	}
	return m, nil
}

// GenomeBounds returns the genome length bounds
func (m *Mutator) GenomeBounds() (lo, hi int) {
	return m.minLen, m.maxLen
}

// Applicable lists the moves with positive weight that can change genome
func (m *Mutator) Applicable(genome models.StackingSequence) []MoveKind {
	plies := genome.Plies()
	var out []MoveKind
	for i, k := range MoveKinds {
		if m.weights[i] > 0 && m.applicable(k, plies) {
			out = append(out, k)
		}
	}
	return out
}

// Propose applies one randomly chosen applicable move to a copy of genome.
// It returns false when no move applies.
func (m *Mutator) Propose(genome models.StackingSequence, rng *utils.RandSource) (models.StackingSequence, MoveKind, bool) {
	plies := genome.Plies()
	weights := make([]float64, len(MoveKinds))
	for i, k := range MoveKinds {
		if m.weights[i] > 0 && m.applicable(k, plies) {
			weights[i] = m.weights[i]
		}
	}
	idx := rng.WeightedIndex(weights)
	if idx < 0 {
		return genome, "", false
	}
	kind := MoveKinds[idx]

	var next []models.Ply
	switch kind {
	case MoveSwap:
		next = m.swap(plies, rng)
	case MoveFlip:
		next = m.flip(plies, rng)
	case MovePair:
		next = m.pair(plies, rng)
	case MoveThickness:
		next = m.thickness(plies, rng)
	case MoveInsert:
		next = m.insert(plies, rng)
	case MoveDelete:
		next = m.delete(plies, rng)
	}
	return models.NewStackingSequence(next...), kind, true
}

func (m *Mutator) applicable(kind MoveKind, plies []models.Ply) bool {
	n := len(plies)
	switch kind {
	case MoveSwap:
		for i := 1; i < n; i++ {
			if !plies[i].SameAs(plies[0]) {
				return true
			}
		}
		return false
	case MoveFlip:
		return len(m.flipIndices(plies)) > 0
	case MovePair:
		return m.canPairUp(plies) || (len(m.pairedIndices(plies)) > 0 && len(m.unsigned) > 0)
	case MoveThickness:
		return len(m.thicknessIndices(plies)) > 0
	case MoveInsert:
		return len(m.insertOptions(n)) > 0
	case MoveDelete:
		return len(m.deleteIndices(plies)) > 0
	}
	return false
}

func (m *Mutator) swap(plies []models.Ply, rng *utils.RandSource) []models.Ply {
	i := rng.Intn(len(plies))
	var others []int
	for j := range plies {
		if !plies[j].SameAs(plies[i]) {
			others = append(others, j)
		}
	}
	j := others[rng.Intn(len(others))]
	plies[i], plies[j] = plies[j], plies[i]
	return plies
}

// flipTargets returns the orientations ply p may be flipped to. With balance
// required only 0/90-type plies flip, and only to 0/90-type orientations.
func (m *Mutator) flipTargets(p models.Ply) []models.Orientation {
	pool := m.allowed
	if m.cfg.Balance {
		if p.Orientation.IsOffAxis() {
			return nil
		}
		pool = m.unsigned
	}
	var out []models.Orientation
	for _, o := range pool {
		if o != p.Orientation.Normalize() {
			out = append(out, o)
		}
	}
	return out
}

func (m *Mutator) flipIndices(plies []models.Ply) []int {
	var out []int
	for i, p := range plies {
		if len(m.flipTargets(p)) > 0 {
			out = append(out, i)
		}
	}
	return out
}

func (m *Mutator) flip(plies []models.Ply, rng *utils.RandSource) []models.Ply {
	idx := m.flipIndices(plies)
	i := idx[rng.Intn(len(idx))]
	targets := m.flipTargets(plies[i])
	plies[i] = plies[i].WithOrientation(targets[rng.Intn(len(targets))])
	return plies
}

func (m *Mutator) unsignedIndices(plies []models.Ply) []int {
	var out []int
	for i, p := range plies {
		if !p.Orientation.IsOffAxis() {
			out = append(out, i)
		}
	}
	return out
}

func (m *Mutator) canPairUp(plies []models.Ply) bool {
	return len(m.angled) > 0 && len(m.unsignedIndices(plies)) >= 2
}

// pairedIndices returns off-axis plies that have an opposite-angle partner
func (m *Mutator) pairedIndices(plies []models.Ply) []int {
	counts := make(map[models.Orientation]int)
	for _, p := range plies {
		counts[p.Orientation.Normalize()]++
	}
	var out []int
	for i, p := range plies {
		o := p.Orientation.Normalize()
		if o.IsOffAxis() && counts[o.Opposite()] > 0 {
			out = append(out, i)
		}
	}
	return out
}

func (m *Mutator) partnerOf(plies []models.Ply, i int, rng *utils.RandSource) int {
	want := plies[i].Orientation.Opposite()
	var partners []int
	for j, p := range plies {
		if j != i && p.Orientation.Normalize() == want {
			partners = append(partners, j)
		}
	}
	if len(partners) == 0 {
		return -1
	}
	return partners[rng.Intn(len(partners))]
}

func (m *Mutator) pair(plies []models.Ply, rng *utils.RandSource) []models.Ply {
	up := m.canPairUp(plies)
	paired := m.pairedIndices(plies)
	down := len(paired) > 0 && len(m.unsigned) > 0
	if up && (!down || rng.BernoulliBool(0.5)) {
		idx := m.unsignedIndices(plies)
		perm := rng.Perm(len(idx))
		i, j := idx[perm[0]], idx[perm[1]]
		theta := m.angled[rng.Intn(len(m.angled))]
		plies[i] = plies[i].WithOrientation(theta)
		plies[j] = plies[j].WithOrientation(theta.Opposite())
		return plies
	}
	i := paired[rng.Intn(len(paired))]
	j := m.partnerOf(plies, i, rng)
	plies[i] = plies[i].WithOrientation(m.unsigned[rng.Intn(len(m.unsigned))])
	plies[j] = plies[j].WithOrientation(m.unsigned[rng.Intn(len(m.unsigned))])
	return plies
}

func (m *Mutator) thicknessSteps(p models.Ply) []float64 {
	step := m.cfg.ThicknessStep
	if step <= 0 {
		return nil
	}
	var out []float64
	if p.Thickness+step <= m.cfg.MaxThickness+utils.Tolerance {
		out = append(out, step)
	}
	if p.Thickness-step >= m.cfg.MinThickness-utils.Tolerance {
		out = append(out, -step)
	}
	return out
}

func (m *Mutator) thicknessIndices(plies []models.Ply) []int {
	var out []int
	for i, p := range plies {
		if len(m.thicknessSteps(p)) > 0 {
			out = append(out, i)
		}
	}
	return out
}

func (m *Mutator) thickness(plies []models.Ply, rng *utils.RandSource) []models.Ply {
	idx := m.thicknessIndices(plies)
	i := idx[rng.Intn(len(idx))]
	steps := m.thicknessSteps(plies[i])
	t := plies[i].Thickness + steps[rng.Intn(len(steps))]
	t = utils.ClampFloat64(utils.Round(t, 12), m.cfg.MinThickness, m.cfg.MaxThickness)
	plies[i] = plies[i].WithThickness(t)
	return plies
}

// insertOptions lists the orientations that can be inserted into a genome of n plies.
// With balance required an off-axis option inserts its ±θ pair.
func (m *Mutator) insertOptions(n int) []models.Orientation {
	var out []models.Orientation
	if !m.cfg.Balance {
		if n+1 <= m.maxLen {
			out = append(out, m.allowed...)
		}
		return out
	}
	if n+1 <= m.maxLen {
		out = append(out, m.unsigned...)
	}
	if n+2 <= m.maxLen {
		out = append(out, m.angled...)
	}
	return out
}

func insertAt(plies []models.Ply, pos int, p models.Ply) []models.Ply {
	plies = append(plies, models.Ply{})
	copy(plies[pos+1:], plies[pos:])
	plies[pos] = p
	return plies
}

func (m *Mutator) insert(plies []models.Ply, rng *utils.RandSource) []models.Ply {
	options := m.insertOptions(len(plies))
	o := options[rng.Intn(len(options))]
	plies = insertAt(plies, rng.IntRange(0, len(plies)), m.cfg.Template.WithOrientation(o))
	if m.cfg.Balance && o.IsOffAxis() {
		plies = insertAt(plies, rng.IntRange(0, len(plies)), m.cfg.Template.WithOrientation(o.Opposite()))
	}
	return plies
}

// deleteIndices lists plies that can be removed while keeping the genome length in bounds
func (m *Mutator) deleteIndices(plies []models.Ply) []int {
	n := len(plies)
	if n-1 < m.minLen {
		return nil
	}
	if !m.cfg.Balance {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	counts := make(map[models.Orientation]int)
	for _, p := range plies {
		counts[p.Orientation.Normalize()]++
	}
	var out []int
	for i, p := range plies {
		o := p.Orientation.Normalize()
		if o.IsOffAxis() && counts[o.Opposite()] > 0 && n-2 < m.minLen {
			continue
		}
		out = append(out, i)
	}
	return out
}

func removeAt(plies []models.Ply, i int) []models.Ply {
	return append(plies[:i], plies[i+1:]...)
}

func (m *Mutator) delete(plies []models.Ply, rng *utils.RandSource) []models.Ply {
	idx := m.deleteIndices(plies)
	i := idx[rng.Intn(len(idx))]
	j := -1
	if m.cfg.Balance && plies[i].Orientation.IsOffAxis() {
		j = m.partnerOf(plies, i, rng)
	}
	if j < 0 {
		return removeAt(plies, i)
	}
	if j > i {
		i, j = j, i
	}
	plies = removeAt(plies, i)
	return removeAt(plies, j)
}
