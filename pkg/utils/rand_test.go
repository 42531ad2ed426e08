package utils

import (
	"testing"
)

func TestNewRandSource(t *testing.T) {
	rng1 := NewRandSource(12345)
	if rng1 == nil {
		t.Fatal("Expected RandSource to be created")
	}
	if rng1.Seed() != 12345 {
		t.Errorf("Expected seed 12345, got %d", rng1.Seed())
	}

	// Zero seed falls back to the fixed default, never the clock
	rng2 := NewRandSource(0)
	if rng2.Seed() != DefaultSeed {
		t.Errorf("Expected default seed %d, got %d", DefaultSeed, rng2.Seed())
	}
}

func TestRandSourceFloat64(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Float64()
		if val < 0 || val >= 1.0 {
			t.Errorf("Float64() returned value outside [0, 1): %f", val)
		}
	}
}

func TestRandSourceIntRange(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 200; i++ {
		val := rng.IntRange(4, 8)
		if val < 4 || val > 8 {
			t.Errorf("IntRange(4, 8) returned value outside [4, 8]: %d", val)
		}
	}
	if got := rng.IntRange(5, 5); got != 5 {
		t.Errorf("IntRange(5, 5) = %d, want 5", got)
	}
}

func TestWeightedIndex(t *testing.T) {
	rng := NewRandSource(7)

	if idx := rng.WeightedIndex([]float64{0, 0}); idx != -1 {
		t.Errorf("Expected -1 for all-zero weights, got %d", idx)
	}

	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		idx := rng.WeightedIndex([]float64{1, 0, 3})
		if idx == 1 {
			t.Fatal("Zero-weight index must never be picked")
		}
		counts[idx]++
	}
	if counts[2] < 2*counts[0] {
		t.Errorf("Expected index 2 to dominate, got counts %v", counts)
	}
}

func TestDeterministicBehavior(t *testing.T) {
	rng1 := NewRandSource(42)
	rng2 := NewRandSource(42)

	for i := 0; i < 100; i++ {
		if rng1.Float64() != rng2.Float64() {
			t.Fatal("Expected deterministic behavior with same seed")
		}
	}
}

func TestDeriveSeed(t *testing.T) {
	if DeriveSeed(42, 0) != DeriveSeed(42, 0) {
		t.Fatal("DeriveSeed must be deterministic")
	}
	seen := make(map[int64]bool)
	for stream := uint64(0); stream < 64; stream++ {
		s := DeriveSeed(42, stream)
		if seen[s] {
			t.Fatalf("Duplicate derived seed for stream %d", stream)
		}
		seen[s] = true
	}

	base := NewRandSource(42)
	a := base.Derive(1)
	b := base.Derive(1)
	if a.Float64() != b.Float64() {
		t.Error("Derive must not consume the parent stream")
	}
}
