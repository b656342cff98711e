package replay

import (
	"fmt"
	"sort"

	"draft-strategy-lab/internal/domain"
)

// SortMatches orders matches by (sequence ASC, id ASC).
func SortMatches(matches []*domain.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return compareMatches(matches[i], matches[j]) < 0
	})
}

// CheckOrdering verifies matches are strictly increasing by (sequence, id).
func CheckOrdering(matches []*domain.Match) error {
	for i := 1; i < len(matches); i++ {
		if compareMatches(matches[i-1], matches[i]) >= 0 {
			return fmt.Errorf("%w: match %d at position %d follows match %d",
				ErrInvalidOrdering, matches[i].ID, i, matches[i-1].ID)
		}
	}
	return nil
}

// compareMatches returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (sequence ASC, id ASC)
func compareMatches(a, b *domain.Match) int {
	if a.Sequence != b.Sequence {
		if a.Sequence < b.Sequence {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}
