package catalog

import (
	"strings"

	"github.com/agentstation/dataengine/pkg/errors"
)

// DeleteSemantic selects how a removal is carried out by the repository.
type DeleteSemantic string

const (
	// DeleteSoft leaves a tombstone: the object stays addressable for audit
	// queries but disappears from normal lookups.
	DeleteSoft DeleteSemantic = "soft"

	// DeleteHard purges the object and every relationship it takes part in.
	DeleteHard DeleteSemantic = "hard"
)

// String returns the string representation of a delete semantic.
func (s DeleteSemantic) String() string {
	return string(s)
}

// Valid reports whether s is a known delete semantic.
func (s DeleteSemantic) Valid() bool {
	return s == DeleteSoft || s == DeleteHard
}

// ParseDeleteSemantic parses "soft" or "hard", ignoring case.
func ParseDeleteSemantic(s string) (DeleteSemantic, error) {
	semantic := DeleteSemantic(strings.ToLower(strings.TrimSpace(s)))
	if !semantic.Valid() {
		return "", errors.NewValidationError("semantic", s, "must be soft or hard")
	}
	return semantic, nil
}
