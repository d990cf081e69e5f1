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
		// Fallback to v4 if v7 fails
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
	RunID       ID
	GeneID      ID
	SetName     ID
	Coefficient ID
)

// String conversions for domain IDs
func (id RunID) String() string       { return ID(id).String() }
func (id GeneID) String() string      { return ID(id).String() }
func (id SetName) String() string     { return ID(id).String() }
func (id Coefficient) String() string { return ID(id).String() }

// ParseGeneID parses a string into GeneID
func ParseGeneID(s string) (GeneID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("gene ID cannot be empty")
	}
	return GeneID(s), nil
}

// ParseCoefficient parses a string into Coefficient
func ParseCoefficient(s string) (Coefficient, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("coefficient cannot be empty")
	}
	return Coefficient(s), nil
}
