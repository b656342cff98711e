package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/replay"
	"draft-strategy-lab/internal/storage"
)

// DefaultMinMatches is the smallest feed considered worth analysing.
const DefaultMinMatches = 20

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker validates that the stored match feed supports an analysis.
type SufficiencyChecker struct {
	matchStore storage.MatchStore
	cfg        graph.Config
	minMatches int
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(matchStore storage.MatchStore, cfg graph.Config) *SufficiencyChecker {
	return &SufficiencyChecker{
		matchStore: matchStore,
		cfg:        cfg,
		minMatches: DefaultMinMatches,
	}
}

// WithMinMatches overrides the minimum feed length.
func (c *SufficiencyChecker) WithMinMatches(n int) *SufficiencyChecker {
	c.minMatches = n
	return c
}

// Check performs all sufficiency checks.
func (c *SufficiencyChecker) Check(ctx context.Context) (*SufficiencyResult, error) {
	matches, err := c.matchStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 6),
		AllPass: true,
		Errors:  []string{},
	}
	add := func(check SufficiencyCheck, errs []string) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	add(c.checkMatchCount(matches), nil)
	add(c.checkOutcomeBalance(matches), nil)
	add(c.checkNodeCoverage(matches), nil)
	add(c.checkDuplicateMatches(matches))
	add(c.checkValidMatches(matches))

	check, errs := c.checkDeterministicReplay(ctx)
	add(check, errs)

	return result, nil
}

// checkMatchCount: feed length >= minMatches.
func (c *SufficiencyChecker) checkMatchCount(matches []*domain.Match) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      "Match count",
		Threshold: fmt.Sprintf(">= %d", c.minMatches),
		Actual:    fmt.Sprintf("%d", len(matches)),
		Pass:      len(matches) >= c.minMatches,
	}
}

// checkOutcomeBalance: at least one win and one loss, otherwise win/loss
// accumulators can never be compared.
func (c *SufficiencyChecker) checkOutcomeBalance(matches []*domain.Match) SufficiencyCheck {
	wins := 0
	for _, m := range matches {
		if m.Won {
			wins++
		}
	}
	losses := len(matches) - wins
	return SufficiencyCheck{
		Name:      "Win/loss balance",
		Threshold: ">= 1 win and >= 1 loss",
		Actual:    fmt.Sprintf("%d wins, %d losses", wins, losses),
		Pass:      wins > 0 && losses > 0,
	}
}

// checkNodeCoverage: every catalog node is observed in at least one mode.
func (c *SufficiencyChecker) checkNodeCoverage(matches []*domain.Match) SufficiencyCheck {
	seen := make(map[domain.GraphMode]map[domain.NodeID]bool, len(domain.Modes))
	for _, mode := range domain.Modes {
		seen[mode] = make(map[domain.NodeID]bool)
		for _, m := range matches {
			for _, label := range m.Labels(mode) {
				if id, ok := domain.ParseNodeID(label); ok {
					seen[mode][id] = true
				}
			}
		}
	}

	var missing []string
	for _, info := range domain.NodeCatalog {
		if !seen[domain.ModePicks][info.ID] && !seen[domain.ModeBans][info.ID] {
			missing = append(missing, string(info.ID))
		}
	}

	total := len(domain.NodeCatalog)
	actual := fmt.Sprintf("picks %d/%d, bans %d/%d",
		len(seen[domain.ModePicks]), total, len(seen[domain.ModeBans]), total)
	if len(missing) > 0 {
		actual += "; unseen: " + strings.Join(missing, ", ")
	}
	return SufficiencyCheck{
		Name:      "Node coverage",
		Threshold: "every node in picks or bans",
		Actual:    actual,
		Pass:      len(missing) == 0,
	}
}

// checkDuplicateMatches: duplicate match id count == 0.
func (c *SufficiencyChecker) checkDuplicateMatches(matches []*domain.Match) (SufficiencyCheck, []string) {
	seen := make(map[int]int)
	for _, m := range matches {
		seen[m.ID]++
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	duplicateCount := 0
	var errors []string
	for _, id := range ids {
		if n := seen[id]; n > 1 {
			duplicateCount++
			errors = append(errors, fmt.Sprintf("duplicate match id: %d (count=%d)", id, n))
		}
	}

	return SufficiencyCheck{
		Name:      "Duplicate match id count",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", duplicateCount),
		Pass:      duplicateCount == 0,
	}, errors
}

// checkValidMatches: every record passes boundary validation and carries no
// unknown strategy labels.
func (c *SufficiencyChecker) checkValidMatches(matches []*domain.Match) (SufficiencyCheck, []string) {
	invalid := 0
	var errors []string
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			invalid++
			errors = append(errors, err.Error())
			continue
		}
		var unknown []string
		for _, mode := range domain.Modes {
			for _, label := range m.Labels(mode) {
				if _, ok := domain.ParseNodeID(label); !ok {
					unknown = append(unknown, label)
				}
			}
		}
		if len(unknown) > 0 {
			invalid++
			errors = append(errors, fmt.Sprintf("match %d has unknown strategies: %s", m.ID, strings.Join(unknown, ", ")))
		}
	}

	return SufficiencyCheck{
		Name:      "Invalid match records",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", invalid),
		Pass:      invalid == 0,
	}, errors
}

// checkDeterministicReplay: two replays of the stored feed produce identical
// graphs in both modes.
func (c *SufficiencyChecker) checkDeterministicReplay(ctx context.Context) (SufficiencyCheck, []string) {
	runner := replay.NewRunner(c.matchStore)
	var errors []string

	for _, mode := range domain.Modes {
		first := replay.NewGraphEngine("sufficiency-a", mode, c.cfg)
		second := replay.NewGraphEngine("sufficiency-b", mode, c.cfg)
		if err := runner.Run(ctx, mode, first); err != nil {
			errors = append(errors, fmt.Sprintf("%s replay failed: %v", mode, err))
			continue
		}
		if err := runner.Run(ctx, mode, second); err != nil {
			errors = append(errors, fmt.Sprintf("%s replay failed: %v", mode, err))
			continue
		}

		a, b := first.Graph(), second.Graph()
		if !reflect.DeepEqual(a.Nodes(), b.Nodes()) || !reflect.DeepEqual(a.Edges(), b.Edges()) {
			errors = append(errors, fmt.Sprintf("%s replay diverged between runs", mode))
		}
	}

	actual := "identical"
	if len(errors) > 0 {
		actual = fmt.Sprintf("%d mode(s) failed", len(errors))
	}
	return SufficiencyCheck{
		Name:      "Deterministic replay",
		Threshold: "identical in both modes",
		Actual:    actual,
		Pass:      len(errors) == 0,
	}, errors
}
