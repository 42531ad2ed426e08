package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// StackingSequence is an ordered, immutable list of plies from one laminate face to the other.
// Every operation returning a sequence returns a fresh value; the backing slice is never shared.
type StackingSequence struct {
	plies []Ply
}

// NewStackingSequence copies the given plies into a new sequence
func NewStackingSequence(plies ...Ply) StackingSequence {
	cp := make([]Ply, len(plies))
	copy(cp, plies)
	return StackingSequence{plies: cp}
}

// UniformSequence builds a sequence of the given orientations sharing one thickness and material
func UniformSequence(thickness float64, materialID string, orientations ...Orientation) StackingSequence {
	plies := make([]Ply, len(orientations))
	for i, o := range orientations {
		plies[i] = NewPly(o, thickness, materialID)
	}
	return StackingSequence{plies: plies}
}

// Len returns the number of plies
func (s StackingSequence) Len() int {
	return len(s.plies)
}

// IsEmpty reports whether the sequence has no plies
func (s StackingSequence) IsEmpty() bool {
	return len(s.plies) == 0
}

// At returns the ply at index i (0 is the bottom face)
func (s StackingSequence) At(i int) Ply {
	return s.plies[i]
}

// Plies returns a copy of the plies
func (s StackingSequence) Plies() []Ply {
	cp := make([]Ply, len(s.plies))
	copy(cp, s.plies)
	return cp
}

// Orientations returns the orientation of every ply in order
func (s StackingSequence) Orientations() []Orientation {
	out := make([]Orientation, len(s.plies))
	for i, p := range s.plies {
		out[i] = p.Orientation
	}
	return out
}

// Reverse returns the sequence read from the opposite face
func (s StackingSequence) Reverse() StackingSequence {
	n := len(s.plies)
	out := make([]Ply, n)
	for i, p := range s.plies {
		out[n-1-i] = p
	}
	return StackingSequence{plies: out}
}

// Mirror returns the sequence followed by its reverse, producing a symmetric laminate
// with an even ply count.
func (s StackingSequence) Mirror() StackingSequence {
	n := len(s.plies)
	out := make([]Ply, 2*n)
	copy(out, s.plies)
	for i, p := range s.plies {
		out[2*n-1-i] = p
	}
	return StackingSequence{plies: out}
}

// Half returns the first floor(n/2) plies
func (s StackingSequence) Half() StackingSequence {
	return NewStackingSequence(s.plies[:len(s.plies)/2]...)
}

// Append returns a new sequence with the plies added on the top face
func (s StackingSequence) Append(plies ...Ply) StackingSequence {
	out := make([]Ply, 0, len(s.plies)+len(plies))
	out = append(out, s.plies...)
	out = append(out, plies...)
	return StackingSequence{plies: out}
}

// Equal compares two sequences ply by ply
func (s StackingSequence) Equal(other StackingSequence) bool {
	if len(s.plies) != len(other.plies) {
		return false
	}
	for i := range s.plies {
		if !s.plies[i].SameAs(other.plies[i]) {
			return false
		}
	}
	return true
}

// IsSymmetric reports whether the sequence equals its own reverse, comparing
// orientation, thickness and material pairwise from each end.
func (s StackingSequence) IsSymmetric() bool {
	n := len(s.plies)
	for i := 0; i < n/2; i++ {
		if !s.plies[i].SameAs(s.plies[n-1-i]) {
			return false
		}
	}
	return true
}

// CountOrientation counts plies with the given (normalized) orientation
func (s StackingSequence) CountOrientation(o Orientation) int {
	o = o.Normalize()
	count := 0
	for _, p := range s.plies {
		if p.Orientation.Normalize() == o {
			count++
		}
	}
	return count
}

// OrientationCounts returns the number of plies per orientation
func (s StackingSequence) OrientationCounts() map[Orientation]int {
	counts := make(map[Orientation]int)
	for _, p := range s.plies {
		counts[p.Orientation.Normalize()]++
	}
	return counts
}

// TotalThickness sums ply thicknesses
func (s StackingSequence) TotalThickness() float64 {
	total := 0.0
	for _, p := range s.plies {
		total += p.Thickness
	}
	return total
}

// MaterialIDs returns the distinct material ids in first-seen order
func (s StackingSequence) MaterialIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range s.plies {
		if !seen[p.MaterialID] {
			seen[p.MaterialID] = true
			ids = append(ids, p.MaterialID)
		}
	}
	return ids
}

// String formats the orientations in layup notation, e.g. [-45/0/45/90]s.
// Thickness and material are not part of the notation.
func (s StackingSequence) String() string {
	if len(s.plies) == 0 {
		return "[]"
	}
	plies := s.plies
	suffix := ""
	if len(plies)%2 == 0 && s.IsSymmetric() {
		plies = plies[:len(plies)/2]
		suffix = "s"
	}
	parts := make([]string, len(plies))
	for i, p := range plies {
		parts[i] = p.Orientation.String()
	}
	return "[" + strings.Join(parts, "/") + "]" + suffix
}

// MarshalJSON encodes the sequence as a list of plies
func (s StackingSequence) MarshalJSON() ([]byte, error) {
	if s.plies == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.plies)
}

// UnmarshalJSON decodes a list of plies
func (s *StackingSequence) UnmarshalJSON(data []byte) error {
	var plies []Ply
	if err := json.Unmarshal(data, &plies); err != nil {
		return err
	}
	*s = NewStackingSequence(plies...)
	return nil
}

// ParseLayup parses layup notation into a sequence with uniform thickness and material.
//
// Supported forms: "[0/45/-45/90]", "[0/±45/90]s", "[0_2/90]s" (subscript repeat count),
// "+-45" as an alias for ±45. A trailing "s" mirrors the listed plies.
func ParseLayup(notation string, thickness float64, materialID string) (StackingSequence, error) {
	text := strings.TrimSpace(notation)
	symmetric := false
	if strings.HasSuffix(text, "s") || strings.HasSuffix(text, "S") {
		symmetric = true
		text = strings.TrimSpace(text[:len(text)-1])
	}
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	if strings.TrimSpace(text) == "" {
		return StackingSequence{}, fmt.Errorf("layup %q has no plies", notation)
	}

	var orientations []Orientation
	for _, token := range strings.Split(text, "/") {
		token = strings.TrimSpace(token)
		repeat := 1
		if idx := strings.Index(token, "_"); idx >= 0 {
			n, err := strconv.Atoi(token[idx+1:])
			if err != nil || n <= 0 {
				return StackingSequence{}, fmt.Errorf("layup %q: invalid repeat count in %q", notation, token)
			}
			repeat = n
			token = token[:idx]
		}

		var angles []Orientation
		switch {
		case strings.HasPrefix(token, "±"), strings.HasPrefix(token, "+-"):
			a, err := strconv.Atoi(strings.TrimPrefix(strings.TrimPrefix(token, "±"), "+-"))
			if err != nil {
				return StackingSequence{}, fmt.Errorf("layup %q: invalid angle %q", notation, token)
			}
			angles = []Orientation{Orientation(a), Orientation(-a)}
		default:
			a, err := strconv.Atoi(token)
			if err != nil {
				return StackingSequence{}, fmt.Errorf("layup %q: invalid angle %q", notation, token)
			}
			angles = []Orientation{Orientation(a)}
		}
		for i := 0; i < repeat; i++ {
			orientations = append(orientations, angles...)
		}
	}

	seq := UniformSequence(thickness, materialID, orientations...)
	if symmetric {
		seq = seq.Mirror()
	}
	return seq, nil
}

// SortedOrientations returns the keys of a count map in ascending order
func SortedOrientations(counts map[Orientation]int) []Orientation {
	keys := make([]Orientation, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
