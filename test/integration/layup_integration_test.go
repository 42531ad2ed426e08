//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/constraint"
	"github.com/GoSim-25-26J-441/layup-core/internal/layupd"
	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

var problemPath = filepath.Join("..", "..", "config", "problem.yaml")

// TestIntegration_ShippedProblem optimizes the shipped plate problem end to end
func TestIntegration_ShippedProblem(t *testing.T) {
	p, err := config.LoadProblem(problemPath)
	if err != nil {
		t.Fatalf("LoadProblem(%s) failed: %v", problemPath, err)
	}
	p.Annealing.MaxIterations = 3000

	search, err := anneal.NewSearch(p, nil)
	if err != nil {
		t.Fatalf("NewSearch failed: %v", err)
	}
	res, err := search.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	best := res.Best
	if best == nil {
		t.Fatalf("expected a best design")
	}
	if !best.Sequence.IsSymmetric() {
		t.Errorf("best %s is not symmetric", best.Layup)
	}
	if !constraint.IsBalanced(best.Sequence) {
		t.Errorf("best %s is not balanced", best.Layup)
	}
	if n := best.Sequence.Len(); n < 8 || n > 16 {
		t.Errorf("best has %d plies, want 8..16", n)
	}
	for _, o := range []models.Orientation{0, 45, -45, 90} {
		frac := float64(best.Sequence.CountOrientation(o)) / float64(best.Sequence.Len())
		if frac < 0.1-1e-9 || frac > 0.5+1e-9 {
			t.Errorf("orientation %d fraction %.3f outside [0.1, 0.5]", o, frac)
		}
	}
	if best.Evaluation.FailureMargin < 1 {
		t.Errorf("failure margin %.3f below 1", best.Evaluation.FailureMargin)
	}
	if len(res.Instances) != p.Runs {
		t.Errorf("expected %d instances, got %d", p.Runs, len(res.Instances))
	}
}

// TestIntegration_HTTPService drives a run through a live HTTP listener
func TestIntegration_HTTPService(t *testing.T) {
	data, err := os.ReadFile(problemPath)
	if err != nil {
		t.Fatalf("read problem: %v", err)
	}

	store := layupd.NewRunStore()
	executor := layupd.NewRunExecutor(store)
	ts := httptest.NewServer(layupd.NewHTTPServer(store, executor).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/runs?run_id=it&start=true", "application/yaml", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	var run layupd.Run
	deadline := time.Now().Add(2 * time.Minute)
	for {
		resp, err := http.Get(ts.URL + "/v1/runs/it")
		if err != nil {
			t.Fatalf("get run: %v", err)
		}
		var body struct {
			Run layupd.Run `json:"run"`
		}
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		run = body.Run
		if run.Status.IsTerminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run did not finish, status %s", run.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if run.Status != models.RunStatusCompleted {
		t.Fatalf("expected completed run, got %s (%s)", run.Status, run.Error)
	}
	if !run.Progress.HasBest || run.Progress.InstancesDone != run.Progress.Instances {
		t.Errorf("unexpected progress %+v", run.Progress)
	}

	resp, err = http.Get(ts.URL + "/v1/runs/it/result?format=xlsx")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for workbook, got %d", resp.StatusCode)
	}
}
