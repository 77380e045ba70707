// Package report exports a screened batch as a workbook or JSON document.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/summary"
)

const (
	SheetAll         = "All Candidates"
	SheetSummary     = "Summary"
	SheetShortlisted = "Shortlisted"
	SheetReview      = "Under Review"
	SheetRejected    = "Rejected"

	defaultSheet = "Sheet1"
)

// Columns is the header of every candidate sheet.
var Columns = []string{
	"Filename", "Candidate Name", "Email", "Phone", "Score", "Status",
	"Reasoning", "Matched Keywords", "Email Draft", "Notes",
}

var subsets = []struct {
	sheet  string
	status candidate.Status
}{
	{sheet: SheetShortlisted, status: candidate.StatusGreen},
	{sheet: SheetReview, status: candidate.StatusYellow},
	{sheet: SheetRejected, status: candidate.StatusRed},
}

// WriteExcel writes the ranked batch, its summary and the non-empty status
// subsets into an xlsx workbook at path.
func WriteExcel(path string, batch *candidate.Batch, sum summary.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetAll); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	ranked := batch.Ranked()
	if err := writeCandidates(f, SheetAll, ranked, header); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create %s sheet: %w", SheetSummary, err)
	}
	if err := writeSummary(f, sum, header); err != nil {
		return err
	}

	rankedBatch := &candidate.Batch{Items: ranked}
	for _, subset := range subsets {
		rows := rankedBatch.WithStatus(subset.status)
		if len(rows) == 0 {
			continue
		}
		if _, err := f.NewSheet(subset.sheet); err != nil {
			return fmt.Errorf("create %s sheet: %w", subset.sheet, err)
		}
		if err := writeCandidates(f, subset.sheet, rows, header); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

func writeCandidates(f *excelize.File, sheet string, records []*candidate.Record, header int) error {
	head := make([]any, len(Columns))
	for i, c := range Columns {
		head[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	last, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", last, 22); err != nil {
		return fmt.Errorf("size %s columns: %w", sheet, err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			Sanitize(r.Filename),
			Sanitize(r.CandidateName),
			Sanitize(r.Email),
			Sanitize(r.Phone),
			r.Score,
			Sanitize(string(r.Status)),
			Sanitize(r.Reasoning),
			Sanitize(r.Keywords()),
			Sanitize(r.EmailDraft),
			Sanitize(r.Notes),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, sum summary.Summary, header int) error {
	if err := f.SetSheetRow(SheetSummary, "A1", &[]any{"Metric", "Value"}); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "B1", header); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 26); err != nil {
		return fmt.Errorf("size summary columns: %w", err)
	}

	for i, pair := range sum.Rows() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &[]any{pair[0], pair[1]}); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+2, err)
		}
	}
	return nil
}
