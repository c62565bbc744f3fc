// Package id generates prefixed, URL-safe identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each stored entity.
const (
	PrefixBook    = "book"
	PrefixUser    = "user"
	PrefixSession = "sess"
)

// Generate creates an ID of the form prefix-nanoid, e.g. "book-V1StGXR8_Z5jdHi6B-myT".
// It fails only if the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}
