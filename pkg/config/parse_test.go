package config

import (
	"strings"
	"testing"
)

func TestParseProblemYAMLString(t *testing.T) {
	yamlText := `
design_load: 1000
ply_count_bounds: {min: 8, max: 16}
orientation_quota_bounds:
  0: {min: 0.2, max: 0.6}
  90: {min: 0.1, max: 1}
annealing:
  max_iterations: 200
  infeasible_policy: penalty
  penalty: 5
seed_sequence:
  - {orientation: 45}
  - {orientation: -45}
  - {orientation: 0}
  - {orientation: 90}
  - {orientation: 90}
  - {orientation: 0}
  - {orientation: -45}
  - {orientation: 45}
`

	p, err := ParseProblemYAMLString(yamlText)
	if err != nil {
		t.Fatalf("ParseProblemYAMLString failed: %v", err)
	}
	if p == nil {
		t.Fatalf("expected non-nil problem")
	}
	if len(p.OrientationQuotaBounds) != 2 {
		t.Fatalf("expected 2 quota entries, got %d", len(p.OrientationQuotaBounds))
	}
	if p.OrientationQuotaBounds[0].Max != 0.6 {
		t.Fatalf("expected 0° max 0.6, got %g", p.OrientationQuotaBounds[0].Max)
	}
	if p.Annealing.InfeasiblePolicy != PolicyPenalty || p.Annealing.PenaltyPerViolation() != 5 {
		t.Fatalf("unexpected annealing: %+v", p.Annealing)
	}

	seed := p.Seed()
	if seed.Len() != 8 {
		t.Fatalf("expected 8 seed plies, got %d", seed.Len())
	}
	if seed.At(0).MaterialID != p.Ply.Material || seed.At(0).Thickness != p.Ply.Thickness {
		t.Fatalf("seed plies should inherit the ply template, got %+v", seed.At(0))
	}
	if !seed.IsSymmetric() {
		t.Fatalf("expected symmetric seed, got %s", seed)
	}
}

func TestParseProblemValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantKey string
	}{
		{"missing load", `ply_count_bounds: {min: 8, max: 16}`, "design_load"},
		{"negative load", `design_load: -5`, "design_load"},
		{"bad bounds", "design_load: 1\nply_count_bounds: {min: 10, max: 8}", "ply_count_bounds.max"},
		{"orientation range", "design_load: 1\nallowed_orientations: [0, 135]", "allowed_orientations"},
		{"unbalanced orientation set", "design_load: 1\nallowed_orientations: [0, 30, 90]", "require_balance"},
		{"quota for unknown orientation", "design_load: 1\norientation_quota_bounds: {30: {min: 0, max: 1}}", "orientation_quota_bounds"},
		{"quota out of range", "design_load: 1\norientation_quota_bounds: {0: {min: 0.5, max: 0.2}}", "orientation_quota_bounds[0]"},
		{"criterion", "design_load: 1\nfailure_criterion: hashin", "failure_criterion"},
		{"three point without span", "design_load: 1\nload_case: {type: three_point, width: 0.05}", "span"},
		{"cooling rate", "design_load: 1\nannealing: {cooling_rate: 1.5}", "cooling_rate"},
		{"schedule", "design_load: 1\nannealing: {cooling_schedule: cubic}", "cooling_schedule"},
		{"policy", "design_load: 1\nannealing: {infeasible_policy: ignore}", "infeasible_policy"},
		{"zero penalty", "design_load: 1\nannealing: {penalty: 0}", "penalty"},
		{"negative min temperature", "design_load: 1\nannealing: {min_temperature: -1}", "min_temperature"},
		{"objective", "design_load: 1\nobjective: {type: cost}", "type"},
		{"weighted sum weighting", "design_load: 1\nobjective: {type: weighted_sum, score_weighting: 2}", "score_weighting"},
		{"unknown ply material", "design_load: 1\nply: {material: kevlar}", "ply.material"},
		{"thickness bounds", "design_load: 1\nply: {thickness: 0.002, max_thickness: 0.001}", "thickness"},
		{"timeout", "design_load: 1\ntimeout: soon", "timeout"},
		{"duplicate material", `
design_load: 1
materials:
  - {id: a, e1: 1e9, e2: 1e9, g12: 1e9, nu12: 0.3, density: 1, xt: 1, xc: 1, yt: 1, yc: 1, s: 1}
  - {id: a, e1: 1e9, e2: 1e9, g12: 1e9, nu12: 0.3, density: 1, xt: 1, xc: 1, yt: 1, yc: 1, s: 1}
`, "duplicate material id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProblemYAMLString(tt.yaml)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Fatalf("expected error to mention %q, got: %v", tt.wantKey, err)
			}
		})
	}
}

func TestExplicitZeroMinTemperatureIsKept(t *testing.T) {
	p, err := ParseProblemYAMLString("design_load: 1\nannealing: {min_temperature: 0}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := p.Annealing.StopTemperature(); got != 0 {
		t.Fatalf("expected explicit min_temperature 0 to be kept, got %g", got)
	}

	p, err = ParseProblemYAMLString("design_load: 1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := p.Annealing.StopTemperature(); got != DefaultMinTemperature {
		t.Fatalf("expected default min_temperature %g, got %g", DefaultMinTemperature, got)
	}
	if got := p.Annealing.PenaltyPerViolation(); got != DefaultPenalty {
		t.Fatalf("expected default penalty %g, got %g", DefaultPenalty, got)
	}

	out, err := MarshalProblemYAML(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(out), "min_temperature: 1e-05") {
		t.Fatalf("expected effective min_temperature in output:\n%s", out)
	}
}

func TestParseMaterialsYAML(t *testing.T) {
	if _, err := ParseMaterialsYAML([]byte("materials: []")); err == nil {
		t.Fatal("expected error for empty material list")
	}
	mf, err := ParseMaterialsYAML([]byte(`
materials:
  - {id: a, e1: 1e11, e2: 1e10, g12: 5e9, nu12: 0.3, density: 1500, xt: 1e9, xc: 1e9, yt: 5e7, yc: 1e8, s: 7e7}
`))
	if err != nil {
		t.Fatalf("ParseMaterialsYAML failed: %v", err)
	}
	if len(mf.Materials) != 1 || mf.Materials[0].ID != "a" {
		t.Fatalf("unexpected materials: %+v", mf.Materials)
	}
}

func TestMarshalProblemYAMLRoundTrip(t *testing.T) {
	p, err := ParseProblemYAMLString("design_load: 250\nrandom_seed: 9")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	out, err := MarshalProblemYAML(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	again, err := ParseProblemYAML(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v\n%s", err, out)
	}
	if again.DesignLoad != 250 || again.RandomSeed != 9 || again.Annealing.MaxIterations != p.Annealing.MaxIterations {
		t.Fatalf("round trip changed values: %+v", again)
	}
}
