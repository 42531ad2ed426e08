package models

import (
	"fmt"
	"sort"
)

// MaterialProperties holds the lamina elastic constants, density and strength limits.
// All quantities are SI: moduli and strengths in Pa, density in kg/m³.
type MaterialProperties struct {
	ID      string  `json:"id" yaml:"id"`
	E1      float64 `json:"e1" yaml:"e1"`           // longitudinal modulus
	E2      float64 `json:"e2" yaml:"e2"`           // transverse modulus
	G12     float64 `json:"g12" yaml:"g12"`         // in-plane shear modulus
	Nu12    float64 `json:"nu12" yaml:"nu12"`       // major Poisson ratio
	Density float64 `json:"density" yaml:"density"` // kg/m³
	Xt      float64 `json:"xt" yaml:"xt"`           // fiber-direction tensile strength
	Xc      float64 `json:"xc" yaml:"xc"`           // fiber-direction compressive strength (positive)
	Yt      float64 `json:"yt" yaml:"yt"`           // transverse tensile strength
	Yc      float64 `json:"yc" yaml:"yc"`           // transverse compressive strength (positive)
	S       float64 `json:"s" yaml:"s"`             // in-plane shear strength
}

// DefaultMaterialID names the built-in material returned by DefaultMaterial
const DefaultMaterialID = "cfrp-ud"

// DefaultMaterial returns a unidirectional carbon/epoxy lamina used when no table is configured
func DefaultMaterial() MaterialProperties {
	return MaterialProperties{
		ID:      DefaultMaterialID,
		E1:      89e9,
		E2:      8e9,
		G12:     4.5e9,
		Nu12:    0.3,
		Density: 1550,
		Xt:      1200e6,
		Xc:      900e6,
		Yt:      40e6,
		Yc:      150e6,
		S:       70e6,
	}
}

// Nu21 returns the minor Poisson ratio
func (m MaterialProperties) Nu21() float64 {
	return m.Nu12 * m.E2 / m.E1
}

// Validate checks the constants are physically admissible
func (m MaterialProperties) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("material id cannot be empty")
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"e1", m.E1}, {"e2", m.E2}, {"g12", m.G12}, {"density", m.Density},
		{"xt", m.Xt}, {"xc", m.Xc}, {"yt", m.Yt}, {"yc", m.Yc}, {"s", m.S},
	}
	for _, f := range positive {
		if !(f.value > 0) {
			return fmt.Errorf("material %s: %s must be positive, got %g", m.ID, f.name, f.value)
		}
	}
	if m.Nu12 < 0 || m.Nu12*m.Nu21() >= 1 {
		return fmt.Errorf("material %s: nu12 %g is not admissible", m.ID, m.Nu12)
	}
	return nil
}

// MaterialTable is read-only reference data shared by all evaluations.
// It is safe for concurrent use because it is never mutated after construction.
type MaterialTable struct {
	byID map[string]MaterialProperties
	ids  []string
}

// NewMaterialTable validates the materials and indexes them by id
func NewMaterialTable(materials ...MaterialProperties) (*MaterialTable, error) {
	t := &MaterialTable{byID: make(map[string]MaterialProperties, len(materials))}
	for _, m := range materials {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate material id: %s", m.ID)
		}
		t.byID[m.ID] = m
		t.ids = append(t.ids, m.ID)
	}
	sort.Strings(t.ids)
	return t, nil
}

// Get looks up a material by id
func (t *MaterialTable) Get(id string) (MaterialProperties, bool) {
	if t == nil {
		return MaterialProperties{}, false
	}
	m, ok := t.byID[id]
	return m, ok
}

// IDs returns the material ids in sorted order
func (t *MaterialTable) IDs() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

// Len returns the number of materials
func (t *MaterialTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ids)
}
