package laminate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Laminate holds the stiffness matrices of an assembled stacking sequence.
// Ply 0 is the bottom face at z = -h/2.
type Laminate struct {
	A, B, D *mat.SymDense

	sequence models.StackingSequence
	qbar     []*mat.SymDense
	z        []float64
	weight   float64
}

// ABD assembles the extensional (A), coupling (B) and bending (D) matrices of seq.
func ABD(seq models.StackingSequence, materials *models.MaterialTable) (*Laminate, error) {
	if seq.IsEmpty() {
		return nil, fmt.Errorf("%w: no plies", ErrInvalidSequence)
	}

	lam := &Laminate{
		A:        mat.NewSymDense(3, nil),
		B:        mat.NewSymDense(3, nil),
		D:        mat.NewSymDense(3, nil),
		sequence: seq,
		qbar:     make([]*mat.SymDense, seq.Len()),
		z:        make([]float64, seq.Len()+1),
	}

	// Reduced stiffness depends only on the material
	reduced := make(map[string]*mat.SymDense)

	h := seq.TotalThickness()
	lam.z[0] = -h / 2
	for k := 0; k < seq.Len(); k++ {
		ply := seq.At(k)
		if !(ply.Thickness > 0) || math.IsInf(ply.Thickness, 0) {
			return nil, fmt.Errorf("%w: ply %d thickness %g", ErrInvalidSequence, k, ply.Thickness)
		}
		m, ok := materials.Get(ply.MaterialID)
		if !ok {
			return nil, fmt.Errorf("%w: ply %d references unknown material %q", ErrInvalidSequence, k, ply.MaterialID)
		}
		q, ok := reduced[m.ID]
		if !ok {
			q = ReducedStiffness(m)
			reduced[m.ID] = q
		}

		lam.z[k+1] = lam.z[k] + ply.Thickness
		lam.qbar[k] = TransformedStiffness(q, ply.Orientation)
		lam.weight += ply.Thickness * m.Density

		z0, z1 := lam.z[k], lam.z[k+1]
		addScaled(lam.A, lam.qbar[k], z1-z0)
		addScaled(lam.B, lam.qbar[k], (z1*z1-z0*z0)/2)
		addScaled(lam.D, lam.qbar[k], (z1*z1*z1-z0*z0*z0)/3)
	}

	return lam, nil
}

func addScaled(dst, q *mat.SymDense, f float64) {
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			dst.SetSym(i, j, dst.At(i, j)+f*q.At(i, j))
		}
	}
}

// Matrix returns the full 6×6 ABD matrix.
func (l *Laminate) Matrix() *mat.SymDense {
	abd := mat.NewSymDense(6, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			abd.SetSym(i, j, l.A.At(i, j))
			abd.SetSym(i+3, j+3, l.D.At(i, j))
		}
		for j := 0; j < 3; j++ {
			abd.SetSym(i, j+3, l.B.At(i, j))
		}
	}
	return abd
}

// Compliance inverts the ABD matrix.
func (l *Laminate) Compliance() (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(l.Matrix()); err != nil {
		cond, ok := err.(mat.Condition)
		if !ok || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: singular stiffness matrix", ErrInvalidSequence)
		}
	}
	return &inv, nil
}

// Thickness returns the laminate thickness h
func (l *Laminate) Thickness() float64 {
	return l.z[len(l.z)-1] - l.z[0]
}

// ArealWeight returns the mass per unit area in kg/m²
func (l *Laminate) ArealWeight() float64 {
	return l.weight
}

// Interfaces returns the z coordinates of the ply boundaries, bottom to top
func (l *Laminate) Interfaces() []float64 {
	out := make([]float64, len(l.z))
	copy(out, l.z)
	return out
}
