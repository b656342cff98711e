package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidMode is returned for a mode name other than picks or bans.
var ErrInvalidMode = errors.New("unknown graph mode")

// GraphMode selects which strategy list of a match feeds a graph.
type GraphMode string

const (
	ModePicks GraphMode = "picks"
	ModeBans  GraphMode = "bans"
)

// Modes lists every graph mode in display order.
var Modes = []GraphMode{ModePicks, ModeBans}

// String returns the string representation of GraphMode.
func (m GraphMode) String() string {
	return string(m)
}

// IsValid checks if the mode is a valid value.
func (m GraphMode) IsValid() bool {
	return m == ModePicks || m == ModeBans
}

// UsesDenied reports whether the mode reads denied (banned) strategies.
func (m GraphMode) UsesDenied() bool {
	return m == ModeBans
}

// ParseGraphMode parses a mode name.
func ParseGraphMode(s string) (GraphMode, error) {
	m := GraphMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w %q", ErrInvalidMode, s)
	}
	return m, nil
}
