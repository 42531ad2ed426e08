package models

import "testing"

func TestRunStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
	}{
		{RunStatusPending, false},
		{RunStatusRunning, false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
		{RunStatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestParseRunStatus(t *testing.T) {
	if got := ParseRunStatus("running"); got != RunStatusRunning {
		t.Errorf("Expected running, got %q", got)
	}
	if got := ParseRunStatus("bogus"); got != "" {
		t.Errorf("Expected empty status for unknown input, got %q", got)
	}
}

func TestOrientationNormalize(t *testing.T) {
	tests := []struct {
		in, want Orientation
	}{
		{0, 0}, {45, 45}, {-45, -45}, {90, 90}, {-90, 90}, {135, -45}, {180, 0}, {-135, 45}, {270, 90},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Orientation(%d).Normalize() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOrientationOffAxis(t *testing.T) {
	if Orientation(0).IsOffAxis() || Orientation(90).IsOffAxis() {
		t.Error("0 and 90 must not be off-axis")
	}
	if !Orientation(45).IsOffAxis() || !Orientation(-30).IsOffAxis() {
		t.Error("45 and -30 must be off-axis")
	}
	if Orientation(45).Opposite() != -45 {
		t.Errorf("Expected opposite of 45 to be -45, got %d", Orientation(45).Opposite())
	}
}

func TestMaterialValidate(t *testing.T) {
	if err := DefaultMaterial().Validate(); err != nil {
		t.Fatalf("default material should be valid: %v", err)
	}
	bad := DefaultMaterial()
	bad.Yt = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("Expected error for zero yt")
	}
	noID := DefaultMaterial()
	noID.ID = ""
	if err := noID.Validate(); err == nil {
		t.Fatal("Expected error for empty id")
	}
}

func TestNewMaterialTableRejectsDuplicates(t *testing.T) {
	if _, err := NewMaterialTable(DefaultMaterial(), DefaultMaterial()); err == nil {
		t.Fatal("Expected duplicate id error")
	}
	table, err := NewMaterialTable(DefaultMaterial())
	if err != nil {
		t.Fatalf("NewMaterialTable failed: %v", err)
	}
	if _, ok := table.Get(DefaultMaterialID); !ok {
		t.Error("Expected default material to be present")
	}
	if _, ok := table.Get("missing"); ok {
		t.Error("Expected missing material lookup to fail")
	}
}
