package anneal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/layup-core/internal/constraint"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

func quarterChecker(t *testing.T, minFraction float64, symmetric, balanced bool) *constraint.Checker {
	t.Helper()
	quotas := make(map[models.Orientation]constraint.Bounds)
	for _, o := range []models.Orientation{0, 45, -45, 90} {
		quotas[o] = constraint.Bounds{Min: minFraction, Max: 0.5}
	}
	c, err := constraint.NewChecker(constraint.Rules{
		AllowedOrientations: []models.Orientation{0, 45, -45, 90},
		PlyCount:            constraint.CountBounds{Min: 8, Max: 16},
		Quotas:              quotas,
		RequireSymmetry:     symmetric,
		RequireBalance:      balanced,
	})
	require.NoError(t, err)
	return c
}

func TestComposerMeetsEveryRule(t *testing.T) {
	for _, tc := range []struct {
		name                string
		symmetric, balanced bool
	}{
		{"symmetric balanced", true, true},
		{"balanced only", false, true},
		{"symmetric only", true, false},
		{"free", false, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			checker := quarterChecker(t, 0.1, tc.symmetric, tc.balanced)
			layout := Layout{Symmetric: tc.symmetric}
			c := &composer{
				checker:  checker,
				layout:   layout,
				balance:  tc.balanced,
				template: models.NewPly(0, plyT, models.DefaultMaterialID),
			}
			lo, hi := layout.GenomeBounds(8, 16)
			lengths := c.feasibleLengths(lo, hi)
			require.NotEmpty(t, lengths)

			rng := utils.NewRandSource(23)
			for _, n := range lengths {
				for i := 0; i < 20; i++ {
					genome, ok := c.compose(n, rng)
					require.True(t, ok)
					require.Equal(t, n, genome.Len())
					full := layout.Expand(genome)
					assert.True(t, checker.IsFeasible(full), "%s violates %s", full, checker.Violations(full))
				}
			}
		})
	}
}

func TestComposerUnsatisfiableQuotas(t *testing.T) {
	checker := quarterChecker(t, 0.3, true, true)
	c := &composer{checker: checker, layout: Layout{Symmetric: true}, balance: true}
	assert.Empty(t, c.feasibleLengths(4, 8))
	_, ok := c.compose(4, utils.NewRandSource(1))
	assert.False(t, ok)
}

func TestComposerSkipsInfeasibleLengths(t *testing.T) {
	// Symmetric and balanced with four orientations needs at least one of each
	// per half: 0, 90 and a ±45 pair, so halves shorter than 4 plies fail.
	c, err := constraint.NewChecker(constraint.Rules{
		AllowedOrientations: []models.Orientation{0, 45, -45, 90},
		PlyCount:            constraint.CountBounds{Min: 2, Max: 10},
		Quotas: map[models.Orientation]constraint.Bounds{
			0: {Min: 0.1, Max: 1}, 45: {Min: 0.1, Max: 1}, -45: {Min: 0.1, Max: 1}, 90: {Min: 0.1, Max: 1},
		},
		RequireSymmetry: true,
		RequireBalance:  true,
	})
	require.NoError(t, err)
	comp := &composer{checker: c, layout: Layout{Symmetric: true}, balance: true}
	assert.Equal(t, []int{4, 5}, comp.feasibleLengths(1, 5))
}

func TestComposerDeterministic(t *testing.T) {
	checker := quarterChecker(t, 0.1, true, true)
	c := &composer{
		checker:  checker,
		layout:   Layout{Symmetric: true},
		balance:  true,
		template: models.NewPly(0, plyT, models.DefaultMaterialID),
	}
	a, _ := c.compose(6, utils.NewRandSource(77))
	b, _ := c.compose(6, utils.NewRandSource(77))
	assert.True(t, a.Equal(b))
}
