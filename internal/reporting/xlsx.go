package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"draft-strategy-lab/internal/observability"
)

// Sheet names of the workbook export.
const (
	SheetSummary   = "Summary"
	SheetNodes     = "Nodes"
	SheetDenials   = "Denials"
	SheetScenarios = "Scenarios"
)

// WriteXLSX writes the report as a workbook with one sheet per table.
func WriteXLSX(r *Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, sh := range []string{SheetNodes, SheetDenials, SheetScenarios} {
		if _, err := f.NewSheet(sh); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	pctStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{"Home", r.Teams.Home},
		{"Opponent", r.Teams.Opponent},
		{"Session", r.SessionID},
		{"Matches", r.Matches},
		{"Flow data", r.DataSource.Source},
		{"Baseline success", r.Executive.BaselineRate},
		{"Lynchpin", r.Executive.Lynchpin},
		{"Robustness", r.Executive.Robustness},
		{"Summary", r.Executive.Summary},
		{"Game plan", r.GamePlan},
	}
	for i, rec := range r.Recommendations {
		summary = append(summary, []interface{}{fmt.Sprintf("Recommendation %d", i+1), rec})
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "B7", "B7", pctStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "B", "B", 90); err != nil {
		return err
	}

	nodes := [][]interface{}{{"Mode", "Node", "Label", "Strength", "Win", "Loss", "Games", "WinRate", "Confidence", "Fragility", "Verdict"}}
	for _, n := range r.NodeRows() {
		nodes = append(nodes, []interface{}{n.Mode, n.NodeID, n.Label, n.Strength, n.WinStrength, n.LossStrength, n.Games, n.WinRate, n.Confidence, n.Fragility, n.Verdict})
	}
	if err := writeTable(f, SheetNodes, nodes, headerStyle, pctStyle, "H"); err != nil {
		return err
	}

	denials := [][]interface{}{{"Deny", "Success", "Robustness", "Collapse%", "Top Failure", "Lynchpin"}}
	for _, d := range r.Denials {
		denials = append(denials, []interface{}{d.Deny, d.SuccessRate, d.Robustness, d.CollapsePct, d.TopFailure, d.Lynchpin})
	}
	if err := writeTable(f, SheetDenials, denials, headerStyle, pctStyle, "B"); err != nil {
		return err
	}

	scenarios := [][]interface{}{{"Scenario", "WinRate", "Delta", "Duration", "Stddev", "Volatility", "Label", "Run ID"}}
	for _, s := range r.Scenarios {
		scenarios = append(scenarios, []interface{}{s.Scenario, s.WinRate, s.Delta, s.MeanDuration, s.DurationStddev, s.Volatility, s.Label, s.RunID})
	}
	if err := writeTable(f, SheetScenarios, scenarios, headerStyle, pctStyle, "B"); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	observability.RecordReportGenerated("xlsx")
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(r *Report, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteXLSX(r, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeTable writes a header row plus data rows, styles the header and
// formats pctCol as a percentage.
func writeTable(f *excelize.File, sheet string, rows [][]interface{}, headerStyle, pctStyle int, pctCol string) error {
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if len(rows) > 1 {
		if err := f.SetCellStyle(sheet, pctCol+"2", fmt.Sprintf("%s%d", pctCol, len(rows)), pctStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		return err
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", strings.ToLower(sheet), i+1, err)
		}
	}
	return nil
}
