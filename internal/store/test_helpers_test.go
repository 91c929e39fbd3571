package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a passing run with a three-signal trace.
func createTestRun(id, scenario string) Run {
	return Run{
		ID:       id,
		Scenario: scenario,
		Pass:     true,
		Errors:   []string{},
		Events: []RunEvent{
			{Seq: 1, Kind: "next", Value: "ca"},
			{Seq: 2, Kind: "next", Value: "cb"},
			{Seq: 3, Kind: "complete"},
		},
	}
}
