package anneal

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

const plyT = 0.001

// plateProblem is the quasi-isotropic plate problem: 8..16 plies, every
// orientation between 10% and 50%, 1 kN·m/m design moment.
const plateProblem = `
allowed_orientations: [0, 45, -45, 90]
ply_count_bounds: {min: 8, max: 16}
orientation_quota_bounds:
  0: {min: 0.1, max: 0.5}
  45: {min: 0.1, max: 0.5}
  -45: {min: 0.1, max: 0.5}
  90: {min: 0.1, max: 0.5}
design_load: 1000
annealing:
  max_iterations: 600
random_seed: 7
`

func parseProblem(t *testing.T, text string) *config.Problem {
	t.Helper()
	p, err := config.ParseProblemYAMLString(text)
	require.NoError(t, err)
	return p
}

func newSearch(t *testing.T, p *config.Problem) *Search {
	t.Helper()
	s, err := NewSearch(p, logger.New("error", io.Discard))
	require.NoError(t, err)
	return s
}

func plateSearch(t *testing.T) *Search {
	t.Helper()
	return newSearch(t, parseProblem(t, plateProblem))
}

func layup(t *testing.T, notation string) models.StackingSequence {
	t.Helper()
	seq, err := models.ParseLayup(notation, plyT, models.DefaultMaterialID)
	require.NoError(t, err)
	return seq
}
