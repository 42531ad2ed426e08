package report

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/constraint"
	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

func assessSearch(t *testing.T, load string) *anneal.Search {
	t.Helper()
	p, err := config.ParseProblemYAMLString(`
allowed_orientations: [0, 45, -45, 90]
ply_count_bounds: {min: 8, max: 16}
orientation_quota_bounds:
  0: {min: 0.1, max: 0.5}
  90: {min: 0.1, max: 0.5}
design_load: ` + load + `
`)
	require.NoError(t, err)
	s, err := anneal.NewSearch(p, logger.New("error", io.Discard))
	require.NoError(t, err)
	return s
}

func TestAssessFeasibleLayup(t *testing.T) {
	s := assessSearch(t, "1000")
	seq, err := models.ParseLayup("[-45/0/45/90]s", 0.001, models.DefaultMaterialID)
	require.NoError(t, err)

	a, err := Assess(s, seq)
	require.NoError(t, err)
	assert.True(t, a.Feasible)
	assert.Equal(t, "[-45/0/45/90]s", a.Layup)
	assert.Equal(t, 8, a.Plies)
	assert.Equal(t, s.Objective.Name(), a.Objective)
	assert.NotNil(t, a.Violations)
	assert.Empty(t, a.Violations)
}

func TestAssessReportsViolationsWithDetails(t *testing.T) {
	s := assessSearch(t, "1000000")
	seq, err := models.ParseLayup("[45/0/0/0]", 0.001, models.DefaultMaterialID)
	require.NoError(t, err)

	a, err := Assess(s, seq)
	require.NoError(t, err)
	assert.False(t, a.Feasible)

	kinds := map[constraint.ViolationKind]bool{}
	for _, v := range a.Violations {
		kinds[v.Kind] = true
		assert.NotEmpty(t, v.Detail)
	}
	assert.True(t, kinds[constraint.Asymmetric])
	assert.True(t, kinds[constraint.Unbalanced])
	assert.True(t, kinds[constraint.PlyCountOutOfBounds])
	assert.True(t, kinds[constraint.QuotaBelowMin])
	assert.True(t, kinds[constraint.FirstPlyFailure])
}
