// Package id allocates shopkeeper identifiers: small positive session-stable
// integers and 128-bit unique ids.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewUniqueID returns a random (version 4) unique id.
func NewUniqueID() uuid.UUID {
	return uuid.New()
}

// ParseUniqueID parses a stored unique id. Braced, URN and unhyphenated
// forms are accepted.
func ParseUniqueID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("unique id is empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse unique id %q: %w", raw, err)
	}
	return parsed, nil
}

// Sequence hands out increasing positive integer ids.
//
// It is not safe for concurrent use; callers own it from the tick goroutine.
type Sequence struct {
	last int
}

// NewSequence creates a sequence whose first id is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next unused id.
func (s *Sequence) Next() int {
	s.last++
	return s.last
}

// Observe records an id that was allocated elsewhere (e.g. loaded from
// storage) so that Next never returns it.
func (s *Sequence) Observe(id int) {
	if id > s.last {
		s.last = id
	}
}

// Last returns the most recently allocated or observed id, or 0.
func (s *Sequence) Last() int {
	return s.last
}
