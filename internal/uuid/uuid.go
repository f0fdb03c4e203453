// Package uuid generates and validates memory identifiers (UUID v4).
package uuid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Canonical v4 form with dashes and variant bits [89ab].
var memoryIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// New generates a fresh memory identifier.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether s is a canonical UUID v4.
// Identifiers are used verbatim inside storage keys, so anything else
// (slashes, dots, braces, urn: prefixes) is rejected.
func IsValid(s string) bool {
	return memoryIDRegex.MatchString(s)
}

// Normalize validates s and returns its lowercase canonical form.
func Normalize(s string) (string, error) {
	if !IsValid(s) {
		return "", fmt.Errorf("invalid memory id %q", s)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid memory id: %w", err)
	}
	return strings.ToLower(id.String()), nil
}
