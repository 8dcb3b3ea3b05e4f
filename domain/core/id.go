package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	DatasetID    ID
	SessionID    ID
	FilterID     ID
	VariableCode ID
)

// String conversions for domain IDs
func (id DatasetID) String() string    { return ID(id).String() }
func (id SessionID) String() string    { return ID(id).String() }
func (id FilterID) String() string     { return ID(id).String() }
func (id VariableCode) String() string { return ID(id).String() }

// NewDatasetID creates a fresh dataset identifier
func NewDatasetID() DatasetID { return DatasetID(NewID()) }

// NewSessionID creates a fresh session identifier
func NewSessionID() SessionID { return SessionID(NewID()) }

// ParseDatasetID parses a string into DatasetID
func ParseDatasetID(s string) (DatasetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("dataset ID cannot be empty")
	}
	return DatasetID(s), nil
}

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	return SessionID(s), nil
}

// ParseFilterID parses a string into FilterID
func ParseFilterID(s string) (FilterID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("filter ID cannot be empty")
	}
	return FilterID(s), nil
}

// ParseVariableCode parses a string into VariableCode
func ParseVariableCode(s string) (VariableCode, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("variable code cannot be empty")
	}
	return VariableCode(strings.TrimSpace(s)), nil
}
