package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id1 := GenerateRunID()
	id2 := GenerateRunID()

	if id1 == "" {
		t.Error("GenerateRunID returned empty string")
	}

	if id1 == id2 {
		t.Error("GenerateRunID should return unique IDs")
	}

	// Should start with "run-"
	if !strings.HasPrefix(id1, "run-") {
		t.Errorf("GenerateRunID should start with 'run-': %s", id1)
	}

	// Should contain timestamp in format YYYYMMDD-HHMMSS
	parts := strings.Split(id1, "-")
	if len(parts) < 3 {
		t.Errorf("GenerateRunID should have at least 3 parts: %s", id1)
	}
}

func TestRunIDUniqueness(t *testing.T) {
	numIDs := 200
	ids := make(map[string]bool)

	for i := 0; i < numIDs; i++ {
		id := GenerateRunID()
		if ids[id] {
			t.Errorf("Duplicate ID generated: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

func TestRunIDConcurrency(t *testing.T) {
	numGoroutines := 10
	idsPerGoroutine := 20

	idChan := make(chan string, numGoroutines*idsPerGoroutine)
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				idChan <- GenerateRunID()
			}
		}()
	}

	wg.Wait()
	close(idChan)

	// Check uniqueness
	ids := make(map[string]bool)
	for id := range idChan {
		if ids[id] {
			t.Errorf("Duplicate ID generated in concurrent test: %s", id)
		}
		ids[id] = true
	}

	expectedCount := numGoroutines * idsPerGoroutine
	if len(ids) != expectedCount {
		t.Errorf("Expected %d unique IDs, got %d", expectedCount, len(ids))
	}
}
