// Package identity defines the opaque caller handle used throughout tiburona,
// plus short random handle generation backed by nanoid.
package identity

import (
	"errors"
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Identity is an opaque, comparable account handle. Authentication of the
// handle happens before it reaches this module.
type Identity string

// ErrEmpty is returned by Validate for the zero Identity.
var ErrEmpty = errors.New("identity: empty")

// Prefix is prepended to every generated handle.
var Prefix = "G"

// Alphabet is the character set for the random part of a generated handle.
var Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Length is the number of random characters generated (excluding the prefix).
var Length = 24

// Validate rejects the empty handle.
func (id Identity) Validate() error {
	if id == "" {
		return ErrEmpty
	}
	return nil
}

func (id Identity) String() string { return string(id) }

// Generate returns a new random handle.
func Generate() (Identity, error) {
	s, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("identity: %w", err)
	}
	return Identity(Prefix + s), nil
}

// MustGenerate is Generate for tests and fixtures.
func MustGenerate() Identity {
	id, err := Generate()
	if err != nil {
		panic(err)
	}
	return id
}
