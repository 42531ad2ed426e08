package constraint

import (
	"fmt"

	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

// Rules configures a Checker
type Rules struct {
	AllowedOrientations []models.Orientation
	PlyCount            CountBounds
	Quotas              map[models.Orientation]Bounds
	RequireSymmetry     bool
	RequireBalance      bool
	// Thickness bounds every ply thickness; the zero value disables the check
	Thickness Bounds
}

// Checker classifies stacking sequences as feasible or infeasible.
// It holds no mutable state and is safe for concurrent use.
type Checker struct {
	rules       Rules
	allRules    []Rule
	allowed     map[models.Orientation]bool
	orientation []models.Orientation
}

// NewChecker validates the rules and builds a Checker
func NewChecker(rules Rules) (*Checker, error) {
	if rules.PlyCount.Min < 0 || rules.PlyCount.Max < rules.PlyCount.Min {
		return nil, fmt.Errorf("invalid ply count bounds [%d, %d]", rules.PlyCount.Min, rules.PlyCount.Max)
	}
	allowed := make(map[models.Orientation]bool, len(rules.AllowedOrientations))
	var orientations []models.Orientation
	for _, o := range rules.AllowedOrientations {
		o = o.Normalize()
		if !allowed[o] {
			allowed[o] = true
			orientations = append(orientations, o)
		}
	}
	quotas := make(map[models.Orientation]Bounds, len(rules.Quotas))
	for o, b := range rules.Quotas {
		if b.Min < 0 || b.Max > 1 || b.Min > b.Max {
			return nil, fmt.Errorf("invalid quota bounds for %d°: [%g, %g]", int(o), b.Min, b.Max)
		}
		quotas[o.Normalize()] = b
	}
	if rules.Thickness.Min < 0 || rules.Thickness.Max < rules.Thickness.Min {
		return nil, fmt.Errorf("invalid thickness bounds [%g, %g]", rules.Thickness.Min, rules.Thickness.Max)
	}
	rules.Quotas = quotas
	rules.AllowedOrientations = orientations

	c := &Checker{
		rules:       rules,
		allowed:     allowed,
		orientation: orientations,
	}
	c.allRules = []Rule{
		plyCountRule{bounds: rules.PlyCount},
		orientationRule{allowed: allowed},
		symmetryRule{enabled: rules.RequireSymmetry},
		balanceRule{enabled: rules.RequireBalance},
		quotaRule{quotas: quotas},
		thicknessRule{bounds: rules.Thickness},
	}
	return c, nil
}

// NewCheckerFromConfig builds a Checker from a validated problem
func NewCheckerFromConfig(p *config.Problem) (*Checker, error) {
	quotas := make(map[models.Orientation]Bounds, len(p.OrientationQuotaBounds))
	for o, r := range p.OrientationQuotaBounds {
		quotas[models.Orientation(o)] = Bounds{Min: r.Min, Max: r.Max}
	}
	return NewChecker(Rules{
		AllowedOrientations: p.Orientations(),
		PlyCount:            CountBounds{Min: p.PlyCountBounds.Min, Max: p.PlyCountBounds.Max},
		Quotas:              quotas,
		RequireSymmetry:     p.Symmetric(),
		RequireBalance:      p.Balanced(),
		Thickness:           Bounds{Min: p.Ply.MinThickness, Max: p.Ply.MaxThickness},
	})
}

// Rules returns the normalized rules of the checker
func (c *Checker) Rules() Rules {
	return c.rules
}

// EnabledRules returns the rules that take part in feasibility
func (c *Checker) EnabledRules() []Rule {
	out := make([]Rule, 0, len(c.allRules))
	for _, r := range c.allRules {
		if r.Enabled() {
			out = append(out, r)
		}
	}
	return out
}

// Explain returns every violation of seq with details, in rule order
func (c *Checker) Explain(seq models.StackingSequence) []Violation {
	var out []Violation
	for _, r := range c.allRules {
		if r.Enabled() {
			out = append(out, r.Check(seq)...)
		}
	}
	return out
}

// Violations returns the set of violated constraint kinds
func (c *Checker) Violations(seq models.StackingSequence) ViolationSet {
	var set ViolationSet
	for _, v := range c.Explain(seq) {
		set = set.With(v.Kind)
	}
	return set
}

// IsFeasible reports whether seq satisfies every enabled rule
func (c *Checker) IsFeasible(seq models.StackingSequence) bool {
	for _, r := range c.allRules {
		if r.Enabled() && len(r.Check(seq)) > 0 {
			return false
		}
	}
	return true
}

// Allowed reports whether o is an allowed orientation
func (c *Checker) Allowed(o models.Orientation) bool {
	return c.allowed[o.Normalize()]
}

// Orientations returns the allowed orientations in configuration order
func (c *Checker) Orientations() []models.Orientation {
	out := make([]models.Orientation, len(c.orientation))
	copy(out, c.orientation)
	return out
}

// QuotaRange returns the inclusive range of ply counts at orientation o that
// satisfies its quota in a laminate of n plies.
func (c *Checker) QuotaRange(o models.Orientation, n int) (lo, hi int) {
	b, ok := c.rules.Quotas[o.Normalize()]
	if !ok {
		return 0, n
	}
	lo = utils.CeilTol(b.Min * float64(n))
	hi = utils.FloorTol(b.Max * float64(n))
	return utils.Clamp(lo, 0, n), utils.Clamp(hi, 0, n)
}
