package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/layup-core/internal/report"
)

const problemFile = "../../config/problem.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "layup version "+version+"\n", out)
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, "check", problemFile, "[-45/0/45/90]s")
	require.NoError(t, err)
	assert.Contains(t, out, "feasible (8 plies)")

	out, err = execute(t, "check", problemFile, "[45/0/0/0]")
	assert.True(t, errors.Is(err, errInfeasible))
	assert.Contains(t, out, "asymmetric")
	assert.Contains(t, out, "unbalanced")
}

func TestEvaluateCommand(t *testing.T) {
	out, err := execute(t, "evaluate", problemFile, "[-45/0/45/90]s")
	require.NoError(t, err)

	var a report.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.True(t, a.Feasible)
	assert.Equal(t, 8, a.Plies)
	assert.InDelta(t, 2026.53, a.Evaluation.BendingStiffness, 0.05)

	_, err = execute(t, "evaluate", problemFile, "[0/x]s")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", problemFile)
	require.NoError(t, err)
	assert.Contains(t, out, "cooling_schedule: geometric")
	assert.Contains(t, out, "design_load: 1000")
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "run", problemFile, "--out", dir, "--iters", "200", "--runs", "2", "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Layup:")
	assert.Contains(t, out, "Best instance:")

	for _, name := range []string{report.JSONFile, report.WorkbookFile, report.ChartFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, report.JSONFile))
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal(data, &r))
	require.NotNil(t, r.Best)
	assert.Len(t, r.Instances, 2)
	assert.Equal(t, 200, r.Best.Iterations)
}
