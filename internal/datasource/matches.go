package datasource

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"draft-strategy-lab/internal/domain"
)

// matchDoc is the wire shape of one match feed entry. Both camelCase and
// snake_case denied-strategy keys are accepted.
type matchDoc struct {
	ID                    *int     `json:"id"`
	Picks                 []string `json:"picks"`
	Bans                  []string `json:"bans"`
	Strategies            []string `json:"strategies"`
	DeniedStrategies      []string `json:"deniedStrategies"`
	DeniedStrategiesSnake []string `json:"denied_strategies"`
	Won                   *bool    `json:"won"`
}

// LoadMatchFile reads a JSON match feed from path.
func LoadMatchFile(path string) ([]*domain.Match, []Ignored, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open match feed: %w", err)
	}
	defer f.Close()
	return LoadMatches(f, path)
}

// LoadMatches decodes a JSON array of matches. Entries missing id or won, or
// with a non-positive or repeated id, are ignored. Unknown strategy labels are
// reported but kept; the graph skips them on deposit. Sequence follows array order.
func LoadMatches(r io.Reader, name string) ([]*domain.Match, []Ignored, error) {
	var docs []json.RawMessage
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}

	var (
		matches []*domain.Match
		ignored []Ignored
		seen    = make(map[int]bool, len(docs))
	)
	for i, raw := range docs {
		entry := fmt.Sprintf("[%d]", i)
		var d matchDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			ignored = append(ignored, Ignored{File: name, Entry: entry, Reason: ReasonBadShape})
			continue
		}
		if d.ID == nil || d.Won == nil {
			ignored = append(ignored, Ignored{File: name, Entry: entry, Reason: ReasonMissingField})
			continue
		}
		if *d.ID <= 0 || seen[*d.ID] {
			ignored = append(ignored, Ignored{File: name, Entry: entry, Reason: ReasonOutOfRange})
			continue
		}
		seen[*d.ID] = true

		denied := d.DeniedStrategies
		if denied == nil {
			denied = d.DeniedStrategiesSnake
		}
		m := &domain.Match{
			ID:               *d.ID,
			Sequence:         len(matches),
			Picks:            d.Picks,
			Bans:             d.Bans,
			Strategies:       d.Strategies,
			DeniedStrategies: denied,
			Won:              *d.Won,
		}
		for _, mode := range domain.Modes {
			for _, label := range m.Labels(mode) {
				if _, ok := domain.ParseNodeID(label); !ok {
					ignored = append(ignored, Ignored{
						File:   name,
						Entry:  fmt.Sprintf("%s.%s.%s", entry, mode, label),
						Reason: ReasonUnknownNode,
					})
				}
			}
		}
		matches = append(matches, m)
	}
	return matches, ignored, nil
}
