package constraint

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// ViolationKind classifies why a sequence is infeasible
type ViolationKind string

const (
	Asymmetric            ViolationKind = "asymmetric"
	Unbalanced            ViolationKind = "unbalanced"
	QuotaBelowMin         ViolationKind = "quota_below_min"
	QuotaAboveMax         ViolationKind = "quota_above_max"
	PlyCountOutOfBounds   ViolationKind = "ply_count_out_of_bounds"
	DisallowedOrientation ViolationKind = "disallowed_orientation"
	ThicknessOutOfBounds  ViolationKind = "thickness_out_of_bounds"
	// FirstPlyFailure is not produced by the Checker. The search adds it when a
	// candidate's failure margin is below 1.
	FirstPlyFailure ViolationKind = "first_ply_failure"
)

// Violation is one failed check with a human readable detail
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Detail string        `json:"detail"`
}

// ViolationSet is a sorted set of violation kinds. The zero value is the empty set.
type ViolationSet struct {
	kinds []ViolationKind
}

// NewViolationSet builds a set from kinds, dropping duplicates
func NewViolationSet(kinds ...ViolationKind) ViolationSet {
	var s ViolationSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns a new set that also contains k
func (s ViolationSet) With(k ViolationKind) ViolationSet {
	if s.Has(k) {
		return s
	}
	kinds := make([]ViolationKind, len(s.kinds), len(s.kinds)+1)
	copy(kinds, s.kinds)
	kinds = append(kinds, k)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return ViolationSet{kinds: kinds}
}

// Has reports whether k is in the set
func (s ViolationSet) Has(k ViolationKind) bool {
	for _, v := range s.kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Kinds returns the kinds in sorted order
func (s ViolationSet) Kinds() []ViolationKind {
	out := make([]ViolationKind, len(s.kinds))
	copy(out, s.kinds)
	return out
}

// Len returns the number of distinct kinds
func (s ViolationSet) Len() int {
	return len(s.kinds)
}

// Empty reports whether the set has no violations
func (s ViolationSet) Empty() bool {
	return len(s.kinds) == 0
}

func (s ViolationSet) String() string {
	parts := make([]string, len(s.kinds))
	for i, k := range s.kinds {
		parts[i] = string(k)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MarshalJSON encodes the set as a list of kinds
func (s ViolationSet) MarshalJSON() ([]byte, error) {
	if s.kinds == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.kinds)
}

// Bounds is an inclusive range of ply fractions
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CountBounds is an inclusive range of ply counts
type CountBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Rule is one independently evaluable manufacturing constraint
type Rule interface {
	// Name returns the rule name for identification
	Name() string
	// Enabled returns whether the rule takes part in feasibility
	Enabled() bool
	// Check returns the violations of seq; nil means the rule is satisfied
	Check(seq models.StackingSequence) []Violation
}
