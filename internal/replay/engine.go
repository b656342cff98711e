package replay

import (
	"context"

	"draft-strategy-lab/internal/domain"
)

// Step is one match delivered to an engine during a replay.
type Step struct {
	Index int // 0-based position in the feed
	Total int // feed length
	Mode  domain.GraphMode
	Match *domain.Match
}

// Last reports whether this step exhausts the feed.
func (s *Step) Last() bool {
	return s.Index == s.Total-1
}

// ReplayEngine processes matches in feed order.
type ReplayEngine interface {
	// OnMatch is called once per match, in (sequence, id) order.
	OnMatch(ctx context.Context, step *Step) error
}

// Resetter is implemented by engines whose state can be cleared for a fresh replay.
type Resetter interface {
	Reset()
}
