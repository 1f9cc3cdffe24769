// Package report exports a user's assessment results as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"career-assessment-service/internal/domain"
)

const (
	ResultsSheet   = "Results"
	TopSkillsSheet = "Top Skills"
)

// WriteXLSX writes a workbook with one row per result category on the
// Results sheet and the ranked averages on the Top Skills sheet.
func WriteXLSX(w io.Writer, results []domain.AssessmentResult, summary domain.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, ResultsSheet, resultRows(results)); err != nil {
		return err
	}

	index, err := f.NewSheet(TopSkillsSheet)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeRows(f, TopSkillsSheet, skillRows(summary)); err != nil {
		return err
	}
	f.SetActiveSheet(index)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func resultRows(results []domain.AssessmentResult) [][]any {
	rows := [][]any{{"Result ID", "Assessment", "Mode", "Completed At", "Category", "Score"}}
	for _, r := range results {
		for _, s := range r.Scores {
			rows = append(rows, []any{
				r.ID, r.AssessmentID, string(r.Mode), r.CompletedAt.UTC().Format(time.RFC3339), s.Category, s.Score,
			})
		}
		if r.Mode == domain.ModeAdditive {
			rows = append(rows, []any{
				r.ID, r.AssessmentID, string(r.Mode), r.CompletedAt.UTC().Format(time.RFC3339), domain.TotalScoreKey, r.Total,
			})
		}
	}
	return rows
}

func skillRows(summary domain.Summary) [][]any {
	rows := [][]any{
		{"Completed", summary.Completed, "of", summary.Expected},
		{"Completion %", summary.CompletionPercentage},
		{},
		{"Rank", "Category", "Average Score"},
	}
	for i, s := range summary.TopSkills {
		rows = append(rows, []any{i + 1, s.Category, s.Score})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
