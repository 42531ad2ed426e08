package models

import (
	"fmt"
	"math"
	"strconv"
)

// Orientation is a ply fiber angle in whole degrees, measured from the laminate x axis.
type Orientation int

// Normalize maps the angle into (-90, 90].
func (o Orientation) Normalize() Orientation {
	a := int(o) % 180
	if a <= -90 {
		a += 180
	}
	if a > 90 {
		a -= 180
	}
	return Orientation(a)
}

// Opposite returns the mirrored angle (-θ). 0 and 90 are their own opposites.
func (o Orientation) Opposite() Orientation {
	return Orientation(-int(o)).Normalize()
}

// IsOffAxis reports whether the angle has a distinct opposite, i.e. it takes part in balance.
func (o Orientation) IsOffAxis() bool {
	n := o.Normalize()
	return n.Opposite() != n
}

// Radians returns the angle in radians
func (o Orientation) Radians() float64 {
	return float64(o) * math.Pi / 180
}

func (o Orientation) String() string {
	return strconv.Itoa(int(o))
}

// Ply is a single layer of a laminate. Ply values are immutable; edits produce new values.
type Ply struct {
	Orientation Orientation `json:"orientation" yaml:"orientation"`
	Thickness   float64     `json:"thickness" yaml:"thickness"`
	MaterialID  string      `json:"material_id" yaml:"material"`
}

// NewPly creates a ply, normalizing its orientation
func NewPly(orientation Orientation, thickness float64, materialID string) Ply {
	return Ply{
		Orientation: orientation.Normalize(),
		Thickness:   thickness,
		MaterialID:  materialID,
	}
}

// WithOrientation returns a copy of the ply with a different orientation
func (p Ply) WithOrientation(o Orientation) Ply {
	p.Orientation = o.Normalize()
	return p
}

// WithThickness returns a copy of the ply with a different thickness
func (p Ply) WithThickness(t float64) Ply {
	p.Thickness = t
	return p
}

// SameAs compares orientation, thickness and material
func (p Ply) SameAs(other Ply) bool {
	return p.Orientation.Normalize() == other.Orientation.Normalize() &&
		p.MaterialID == other.MaterialID &&
		math.Abs(p.Thickness-other.Thickness) <= thicknessTolerance
}

func (p Ply) String() string {
	return fmt.Sprintf("%d°/%gmm/%s", int(p.Orientation), p.Thickness*1e3, p.MaterialID)
}

// thicknessTolerance absorbs float drift from repeated thickness increments (meters).
const thicknessTolerance = 1e-12
