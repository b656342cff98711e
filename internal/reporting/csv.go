package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders graph node rows as CSV string.
func RenderCSV(rows []NodeRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("mode,node_id,label,strength,win_strength,loss_strength,")
	sb.WriteString("games,win_rate,confidence,fragility,verdict\n")

	// Rows
	for _, n := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.6f,%d,%.6f,%.6f,%.6f,%s\n",
			n.Mode,
			n.NodeID,
			n.Label,
			n.Strength,
			n.WinStrength,
			n.LossStrength,
			n.Games,
			n.WinRate,
			n.Confidence,
			n.Fragility,
			n.Verdict,
		))
	}

	return sb.String()
}

// NodeRows flattens the node tables of every graph section.
func (r *Report) NodeRows() []NodeRow {
	var out []NodeRow
	for _, g := range r.Graphs {
		out = append(out, g.Nodes...)
	}
	return out
}
