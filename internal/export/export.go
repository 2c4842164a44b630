// Package export writes saved entries to an Excel workbook: one sheet with
// every entry and a summary sheet with per-category counts.
package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"checklater/internal/models"
)

// Sheet names.
const (
	EntriesSheet = "Entries"
	SummarySheet = "Summary"
)

var entryHeaders = []string{"ID", "Owner", "Category", "Content", "Created", "Retired"}

var summaryHeaders = []string{"Category", "Active", "Retired", "Total"}

// Write renders entries as an xlsx workbook to w.
func Write(w io.Writer, entries []models.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EntriesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeEntries(f, headerStyle, entries); err != nil {
		return err
	}
	if err := writeSummary(f, headerStyle, entries); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEntries(f *excelize.File, headerStyle int, entries []models.Entry) error {
	if err := writeHeader(f, EntriesSheet, headerStyle, entryHeaders); err != nil {
		return err
	}

	f.SetColWidth(EntriesSheet, "A", "C", 12)
	f.SetColWidth(EntriesSheet, "D", "D", 60)
	f.SetColWidth(EntriesSheet, "E", "E", 20)

	for i, e := range entries {
		owner := ""
		if e.OwnerID != nil {
			owner = strconv.FormatInt(*e.OwnerID, 10)
		}
		row := []any{e.ID, owner, e.Category, e.Content, e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), e.Retired}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(EntriesSheet, cell, &row); err != nil {
			return fmt.Errorf("write entry %d: %w", e.ID, err)
		}
	}
	return nil
}

type tally struct{ active, retired int }

func writeSummary(f *excelize.File, headerStyle int, entries []models.Entry) error {
	if err := writeHeader(f, SummarySheet, headerStyle, summaryHeaders); err != nil {
		return err
	}

	counts := map[string]*tally{}
	for _, e := range entries {
		t, ok := counts[e.Category]
		if !ok {
			t = &tally{}
			counts[e.Category] = t
		}
		if e.Suggestible() {
			t.active++
		} else {
			t.retired++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		t := counts[name]
		row := []any{name, t.active, t.retired, t.active + t.retired}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary %s: %w", name, err)
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}
