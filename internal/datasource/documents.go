// Package datasource loads the optional analysis documents produced by the
// offline pipeline and maps them into a read-only strategy view.
package datasource

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/simulation"
)

// Document file names inside a data directory.
const (
	FileGraphWin       = "graph_win.json"
	FileGraphLoss      = "graph_loss.json"
	FileStrategyReport = "strategy_report.json"
	FileRobustness     = "robustness.json"
	FileBaseline       = "mc_baseline.json"
)

// Files lists every document a bundle needs, in load order.
var Files = []string{FileGraphWin, FileGraphLoss, FileStrategyReport, FileRobustness, FileBaseline}

// ErrMalformed is returned when a document cannot be decoded or lacks required fields.
var ErrMalformed = errors.New("malformed document")

// Ignore reasons.
const (
	ReasonNegativeWeight = "negative_weight"
	ReasonUnknownNode    = "unknown_node"
	ReasonMissingField   = "missing_field"
	ReasonOutOfRange     = "out_of_range"
	ReasonBadShape       = "bad_shape"
)

// Ignored records an entry dropped during validation.
type Ignored struct {
	File   string `json:"file"`
	Entry  string `json:"entry"`
	Reason string `json:"reason"`
}

// GraphDoc is a weighted flow graph (graph_win.json / graph_loss.json).
// Adj carries display weights; OutProbs carries walk probabilities.
type GraphDoc struct {
	Nodes    []string                      `json:"nodes"`
	Adj      map[string]map[string]float64 `json:"adj"`
	OutProbs map[string]map[string]float64 `json:"out_probs"`
}

// TransitionGraph converts the document into a walk graph. OutProbs is
// preferred; Adj is used when no probabilities are present.
func (d *GraphDoc) TransitionGraph() (*simulation.TransitionGraph, error) {
	rows := d.OutProbs
	if len(rows) == 0 {
		rows = d.Adj
	}
	return simulation.NewTransitionGraph(d.Nodes, rows)
}

// LynchpinEntry is one node of the lynchpin report.
type LynchpinEntry struct {
	Node      string  `json:"node"`
	CondReach float64 `json:"cond_reach"`
	Impact    float64 `json:"impact"`
}

// StrategyReport is strategy_report.json.
type StrategyReport struct {
	Lynchpins     []LynchpinEntry     `json:"lynchpins"`
	BreakStrategy map[string][]string `json:"break_strategy"`
}

// DenyResult is one row of robustness.json.
type DenyResult struct {
	Deny        string  `json:"deny"`
	Robustness  float64 `json:"robustness"`
	SuccessRate float64 `json:"success_rate"`
}

// Baseline is a Monte Carlo summary (mc_baseline.json, robustness.json#baseline).
type Baseline struct {
	SuccessRate     float64            `json:"success_rate"`
	NRuns           int                `json:"n_runs"`
	TopSuccessPaths []domain.PathCount `json:"-"`
	RawPaths        []json.RawMessage  `json:"top_success_paths,omitempty"`
}

// RobustnessDoc is robustness.json.
type RobustnessDoc struct {
	Baseline    *Baseline    `json:"baseline"`
	DenyResults []DenyResult `json:"deny_results"`
}

func decode(file string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, file, err)
	}
	return nil
}

// validateGraph drops unknown endpoints and invalid weights. A graph without
// nodes or without any rows is malformed.
func validateGraph(file string, d *GraphDoc) ([]Ignored, error) {
	if len(d.Nodes) == 0 {
		return nil, fmt.Errorf("%w: %s: no nodes", ErrMalformed, file)
	}
	if len(d.Adj) == 0 && len(d.OutProbs) == 0 {
		return nil, fmt.Errorf("%w: %s: neither adj nor out_probs present", ErrMalformed, file)
	}

	known := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		known[n] = true
	}

	var ignored []Ignored
	clean := func(field string, rows map[string]map[string]float64) {
		for from, row := range rows {
			if !known[from] {
				ignored = append(ignored, Ignored{File: file, Entry: field + "." + from, Reason: ReasonUnknownNode})
				delete(rows, from)
				continue
			}
			for to, w := range row {
				entry := fmt.Sprintf("%s.%s.%s", field, from, to)
				switch {
				case !known[to]:
					ignored = append(ignored, Ignored{File: file, Entry: entry, Reason: ReasonUnknownNode})
					delete(row, to)
				case w < 0 || math.IsNaN(w) || math.IsInf(w, 0):
					ignored = append(ignored, Ignored{File: file, Entry: entry, Reason: ReasonNegativeWeight})
					delete(row, to)
				}
			}
		}
	}
	clean("adj", d.Adj)
	clean("out_probs", d.OutProbs)
	sortIgnored(ignored)
	return ignored, nil
}

func validateReport(file string, r *StrategyReport) []Ignored {
	var ignored []Ignored
	kept := r.Lynchpins[:0]
	for i, l := range r.Lynchpins {
		if l.Node == "" {
			ignored = append(ignored, Ignored{File: file, Entry: fmt.Sprintf("lynchpins[%d]", i), Reason: ReasonMissingField})
			continue
		}
		kept = append(kept, l)
	}
	r.Lynchpins = kept
	return ignored
}

func validateRobustness(file string, r *RobustnessDoc) ([]Ignored, error) {
	if r.DenyResults == nil {
		return nil, fmt.Errorf("%w: %s: deny_results missing", ErrMalformed, file)
	}
	var ignored []Ignored
	kept := r.DenyResults[:0]
	for i, d := range r.DenyResults {
		entry := fmt.Sprintf("deny_results[%d]", i)
		switch {
		case d.Deny == "":
			ignored = append(ignored, Ignored{File: file, Entry: entry, Reason: ReasonMissingField})
		case d.Robustness < 0 || d.SuccessRate < 0 || d.SuccessRate > 1:
			ignored = append(ignored, Ignored{File: file, Entry: entry, Reason: ReasonOutOfRange})
		default:
			kept = append(kept, d)
		}
	}
	r.DenyResults = kept
	if r.Baseline != nil {
		ignored = append(ignored, parsePaths(file+"#baseline", r.Baseline)...)
	}
	return ignored, nil
}

// parsePaths decodes [[path, count], ...] pairs into TopSuccessPaths.
func parsePaths(file string, b *Baseline) []Ignored {
	var ignored []Ignored
	b.TopSuccessPaths = b.TopSuccessPaths[:0]
	for i, raw := range b.RawPaths {
		var pair []any
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			ignored = append(ignored, Ignored{File: file, Entry: fmt.Sprintf("top_success_paths[%d]", i), Reason: ReasonBadShape})
			continue
		}
		path, okPath := pair[0].(string)
		count, okCount := pair[1].(float64)
		if !okPath || !okCount || count < 0 {
			ignored = append(ignored, Ignored{File: file, Entry: fmt.Sprintf("top_success_paths[%d]", i), Reason: ReasonBadShape})
			continue
		}
		b.TopSuccessPaths = append(b.TopSuccessPaths, domain.PathCount{Path: path, Count: int(count)})
	}
	return ignored
}
