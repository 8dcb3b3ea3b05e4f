package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseVariableCode tests variable code parsing
func TestParseVariableCode(t *testing.T) {
	tests := []struct {
		input    string
		expected VariableCode
		hasError bool
	}{
		{"Q1", VariableCode("Q1"), false},
		{"  age_group ", VariableCode("age_group"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseVariableCode(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParseSessionID tests session ID parsing
func TestParseSessionID(t *testing.T) {
	if _, err := ParseSessionID(""); err == nil {
		t.Error("Expected error for empty session ID")
	}
	id, err := ParseSessionID("sess-1")
	if err != nil || id != SessionID("sess-1") {
		t.Errorf("Unexpected parse result %q, %v", id, err)
	}
}

func TestCatalogHashIsOrderIndependent(t *testing.T) {
	a := ComputeCatalogHash([]VariableCode{"q1", "q2", "age"})
	b := ComputeCatalogHash([]VariableCode{"age", "q1", "q2"})
	if a != b {
		t.Errorf("Expected equal hashes, got %s and %s", a, b)
	}
	if a.Short(8) != string(a)[:8] {
		t.Errorf("Short(8) mismatch")
	}
}

func TestDomainErrorHelpers(t *testing.T) {
	err := NewDuplicateVariableError("age", "heuristic_age")
	if !IsDuplicateVariableError(err) {
		t.Error("Expected duplicate variable error")
	}
	if !IsNotFoundError(ErrSessionNotFound) {
		t.Error("Expected session not found to match ErrNotFound")
	}
	if !errors.Is(NewInvalidInputError("raw_values", "length mismatch"), ErrInvalidInput) {
		t.Error("Expected invalid input error")
	}
}
