package layupd

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// quickProblem finishes in a few hundred iterations per instance
const quickProblem = `
allowed_orientations: [0, 45, -45, 90]
ply_count_bounds: {min: 8, max: 16}
orientation_quota_bounds:
  0: {min: 0.1, max: 0.5}
  45: {min: 0.1, max: 0.5}
  -45: {min: 0.1, max: 0.5}
  90: {min: 0.1, max: 0.5}
design_load: 1000
annealing:
  max_iterations: 300
random_seed: 11
runs: 2
`

// slowProblem cools so slowly that it only ends when cancelled
const slowProblem = `
allowed_orientations: [0, 45, -45, 90]
ply_count_bounds: {min: 8, max: 16}
design_load: 1000
annealing:
  cooling_rate: 0.9999999
  min_temperature: 1.0e-9
  max_iterations: 100000000
random_seed: 3
`

// unsatisfiableProblem asks for more than 100% of the plies
const unsatisfiableProblem = `
allowed_orientations: [0, 45, -45, 90]
ply_count_bounds: {min: 8, max: 16}
orientation_quota_bounds:
  0: {min: 0.3, max: 1.0}
  45: {min: 0.3, max: 1.0}
  -45: {min: 0.3, max: 1.0}
  90: {min: 0.3, max: 1.0}
design_load: 1000
annealing:
  max_iterations: 50
`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetDefault(logger.New("error", os.Stderr))
	os.Exit(m.Run())
}

func newService() (*RunStore, *RunExecutor) {
	store := NewRunStore()
	return store, NewRunExecutor(store)
}

func waitTerminal(t *testing.T, e *RunExecutor, runID string) *RunRecord {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rec, err := e.Wait(ctx, runID)
	require.NoError(t, err)
	require.True(t, rec.Run.Status.IsTerminal(), "status %s", rec.Run.Status)
	return rec
}

// waitStatus polls until the run reaches status
func waitStatus(t *testing.T, store *RunStore, runID string, status models.RunStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		rec, ok := store.Get(runID)
		return ok && rec.Run.Status == status
	}, 10*time.Second, 10*time.Millisecond)
}
