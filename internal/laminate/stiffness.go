package laminate

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// ReducedStiffness returns the plane-stress stiffness Q of a lamina in material axes,
// ordered (1, 2, 12).
func ReducedStiffness(m models.MaterialProperties) *mat.SymDense {
	denom := 1 - m.Nu12*m.Nu21()
	q11 := m.E1 / denom
	q22 := m.E2 / denom
	q12 := m.Nu12 * m.E2 / denom
	q66 := m.G12
	return mat.NewSymDense(3, []float64{
		q11, q12, 0,
		q12, q22, 0,
		0, 0, q66,
	})
}

// TransformedStiffness rotates Q into laminate axes (x, y, xy) for a ply at angle o.
func TransformedStiffness(q *mat.SymDense, o models.Orientation) *mat.SymDense {
	theta := o.Radians()
	c, s := math.Cos(theta), math.Sin(theta)
	c2, s2 := c*c, s*s
	c4, s4 := c2*c2, s2*s2
	c3s, cs3, c2s2 := c2*c*s, c*s2*s, c2*s2

	q11, q12, q22, q66 := q.At(0, 0), q.At(0, 1), q.At(1, 1), q.At(2, 2)

	b11 := q11*c4 + 2*(q12+2*q66)*c2s2 + q22*s4
	b12 := (q11+q22-4*q66)*c2s2 + q12*(c4+s4)
	b22 := q11*s4 + 2*(q12+2*q66)*c2s2 + q22*c4
	b16 := (q11-q12-2*q66)*c3s - (q22-q12-2*q66)*cs3
	b26 := (q11-q12-2*q66)*cs3 - (q22-q12-2*q66)*c3s
	b66 := (q11+q22-2*q12-2*q66)*c2s2 + q66*(c4+s4)

	return mat.NewSymDense(3, []float64{
		b11, b12, b16,
		b12, b22, b26,
		b16, b26, b66,
	})
}

// toMaterialAxes rotates a laminate-axis stress (σx, σy, τxy) into ply axes (σ1, σ2, τ12).
func toMaterialAxes(stress [3]float64, o models.Orientation) [3]float64 {
	theta := o.Radians()
	c, s := math.Cos(theta), math.Sin(theta)
	sx, sy, txy := stress[0], stress[1], stress[2]
	return [3]float64{
		c*c*sx + s*s*sy + 2*c*s*txy,
		s*s*sx + c*c*sy - 2*c*s*txy,
		-c*s*sx + c*s*sy + (c*c-s*s)*txy,
	}
}
