package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidMatch is returned when a match record fails boundary validation.
var ErrInvalidMatch = errors.New("invalid match")

// Match is an immutable record of one played game in the replay feed.
type Match struct {
	ID               int      `json:"id"`
	Sequence         int      `json:"sequence"` // position in the feed
	Picks            []string `json:"picks"`
	Bans             []string `json:"bans"`
	Strategies       []string `json:"strategies"`        // capability labels present in picks
	DeniedStrategies []string `json:"denied_strategies"` // capability labels present in bans
	Won              bool     `json:"won"`
}

// Validate checks required fields.
func (m *Match) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil match", ErrInvalidMatch)
	}
	if m.ID <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidMatch, m.ID)
	}
	if m.Sequence < 0 {
		return fmt.Errorf("%w: match %d has negative sequence", ErrInvalidMatch, m.ID)
	}
	return nil
}

// Labels returns the strategy list the mode reads.
func (m *Match) Labels(mode GraphMode) []string {
	if mode.UsesDenied() {
		return m.DeniedStrategies
	}
	return m.Strategies
}

// Outcome returns "win" or "loss".
func (m *Match) Outcome() string {
	if m.Won {
		return "win"
	}
	return "loss"
}

// Clone returns a deep copy of the match.
func (m *Match) Clone() *Match {
	c := *m
	c.Picks = append([]string(nil), m.Picks...)
	c.Bans = append([]string(nil), m.Bans...)
	c.Strategies = append([]string(nil), m.Strategies...)
	c.DeniedStrategies = append([]string(nil), m.DeniedStrategies...)
	return &c
}
