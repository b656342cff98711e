package replay

import "draft-strategy-lab/internal/domain"

// Feed is an explicit iterator over a fixed match list.
// It preserves the order it was given.
type Feed struct {
	matches []*domain.Match
	pos     int
}

// NewFeed creates a feed over matches. The slice is copied; matches are shared.
func NewFeed(matches []*domain.Match) *Feed {
	return &Feed{matches: append([]*domain.Match(nil), matches...)}
}

// Next returns the next match and advances, or false when exhausted.
func (f *Feed) Next() (*domain.Match, bool) {
	if f.pos >= len(f.matches) {
		return nil, false
	}
	m := f.matches[f.pos]
	f.pos++
	return m, true
}

// Position is the number of matches already returned.
func (f *Feed) Position() int {
	return f.pos
}

// Len is the total number of matches.
func (f *Feed) Len() int {
	return len(f.matches)
}

// Remaining is the number of matches not yet returned.
func (f *Feed) Remaining() int {
	return len(f.matches) - f.pos
}

// Reset rewinds to the first match.
func (f *Feed) Reset() {
	f.pos = 0
}
