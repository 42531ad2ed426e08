package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/laminate"
	"github.com/GoSim-25-26J-441/layup-core/internal/metrics"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	seq, err := models.ParseLayup("[-45/0/45/90]s", 0.001, models.DefaultMaterialID)
	require.NoError(t, err)
	table, err := models.NewMaterialTable(models.DefaultMaterial())
	require.NoError(t, err)
	eval, err := laminate.Evaluate(seq, table, 1000)
	require.NoError(t, err)

	best := &anneal.Result{
		Sequence:   seq,
		Layup:      seq.String(),
		Evaluation: eval,
		Score:      4.8,
		Objective:  "specific_stiffness",
		Seed:       42,
		Iterations: 20,
		Reason:     anneal.ReasonMaxIterations,
		Trace: []anneal.TracePoint{
			{Iteration: 0, Temperature: 1, CurrentScore: 4.1, BestScore: 4.1, HasBest: true, PlyCount: 8},
			{Iteration: 10, Temperature: 0.99, CurrentScore: 4.5, BestScore: 4.6, HasBest: true, PlyCount: 10},
			{Iteration: 20, Temperature: 0.98, CurrentScore: 4.8, BestScore: 4.8, HasBest: true, PlyCount: 8},
		},
		Stats: metrics.SearchStats{
			Iterations: 20, Evaluations: 18, Accepted: 9, Rejected: 11,
			Series: map[string]*models.Aggregation{
				metrics.MetricBestScore: {Count: 3, Min: 4.1, Max: 4.8, Mean: 4.5, P95: 4.78},
			},
		},
	}
	batch := &anneal.BatchResult{
		Best:      best,
		BestIndex: 0,
		Instances: []anneal.InstanceResult{
			{Index: 0, Seed: 42, Result: best, Stats: best.Stats},
			{Index: 1, Seed: 43, Error: "no feasible solution after 20 iterations", Stats: metrics.SearchStats{Iterations: 20}},
		},
		Stats: metrics.SearchStats{
			Iterations:     40,
			Evaluations:    30,
			Accepted:       12,
			Rejected:       18,
			Infeasible:     map[string]int64{"unbalanced": 4, "asymmetric": 1},
			Moves:          map[string]int64{"swap": 20, "flip": 10},
			AcceptanceRate: 0.4,
		},
	}
	return New("run-test", batch, nil)
}

func TestWriteJSON(t *testing.T) {
	r := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-test", decoded["run_id"])
	best := decoded["best"].(map[string]any)
	assert.Equal(t, "[-45/0/45/90]s", best["layup"])
	assert.Len(t, best["sequence"], 8)
	assert.Equal(t, "42", best["seed"], "seeds are written as strings so 64-bit values survive JSON")
	assert.Contains(t, buf.String(), "\n  \"run_id\"")
}

func TestNewWithError(t *testing.T) {
	r := New("run-x", nil, errors.New("no feasible solution"))
	assert.Nil(t, r.Best)
	assert.Equal(t, -1, r.BestIndex)
	assert.Equal(t, "no feasible solution", r.Error)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, r))
	assert.Error(t, WriteTraceChart(&buf, r))
}

func TestWriteWorkbook(t *testing.T) {
	r := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetSummary, SheetLayup, SheetTrace, SheetInstances}, f.GetSheetList())

	layup, err := f.GetRows(SheetLayup)
	require.NoError(t, err)
	require.Len(t, layup, 9)
	assert.Equal(t, "Orientation (deg)", layup[0][1])
	assert.Equal(t, "-45", layup[1][1])
	assert.Equal(t, "90", layup[4][1])
	assert.Equal(t, "cfrp-ud", layup[8][3])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	values := make(map[string]string)
	for _, row := range summary[1:] {
		if len(row) >= 2 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, "[-45/0/45/90]s", values["Layup"])
	assert.Equal(t, "8", values["Ply count"])
	assert.Equal(t, "cfrp-ud", values["Materials"])
	assert.Equal(t, "max_iterations", values["Termination"])
	assert.Equal(t, "4", values["Infeasible: unbalanced"])
	assert.Equal(t, "20", values["Moves: swap"])
	assert.Equal(t, "4.1", values["Series best_score: min"])
	assert.Equal(t, "4.78", values["Series best_score: p95"])
	assert.Equal(t, "4.8", values["Series best_score: max"])

	trace, err := f.GetRows(SheetTrace)
	require.NoError(t, err)
	require.Len(t, trace, 4)
	assert.Equal(t, "10", trace[2][0])

	instances, err := f.GetRows(SheetInstances)
	require.NoError(t, err)
	require.Len(t, instances, 3)
	assert.Equal(t, "42", instances[1][1])
	assert.Equal(t, "no feasible solution after 20 iterations", instances[2][7])
}

func TestWriteTraceChart(t *testing.T) {
	r := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteTraceChart(&buf, r))
	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "not an html page")
	assert.Contains(t, html, "best score")
	assert.Contains(t, html, "temperature")
	assert.Contains(t, html, "Annealing trace run-test")
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteFiles(dir, sampleReport(t))
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, name := range []string{JSONFile, WorkbookFile, ChartFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	paths, err = WriteFiles(t.TempDir(), New("", nil, nil))
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}
