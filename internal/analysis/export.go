package analysis

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	// ContingencySheet is the sheet name used for exported cross-tabs.
	ContingencySheet = "Contingency"
	// FrequencySheet is the sheet name used for exported frequency tables.
	FrequencySheet = "Frequency"
)

// ExportContingencyXLSX writes ct as a one-sheet workbook: A1 holds the row
// question, row 1 the column labels, column A the row labels, the body the counts.
func ExportContingencyXLSX(w io.Writer, ct *ContingencyTable) error {
	if ct == nil {
		return fmt.Errorf("export contingency: nil table")
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ContingencySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setCell(f, ContingencySheet, 1, 1, ct.RowVar); err != nil {
		return err
	}
	for j, cl := range ct.ColLabels {
		if err := setCell(f, ContingencySheet, j+2, 1, cl); err != nil {
			return err
		}
	}
	for i, rl := range ct.RowLabels {
		if err := setCell(f, ContingencySheet, 1, i+2, rl); err != nil {
			return err
		}
		for j, v := range ct.Counts[i] {
			if err := setCell(f, ContingencySheet, j+2, i+2, v); err != nil {
				return err
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ExportFrequencyXLSX writes entries as a two-column sheet (answer, count).
func ExportFrequencyXLSX(w io.Writer, column string, entries []FrequencyEntry) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", FrequencySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setCell(f, FrequencySheet, 1, 1, column); err != nil {
		return err
	}
	if err := setCell(f, FrequencySheet, 2, 1, "count"); err != nil {
		return err
	}
	for i, e := range entries {
		if err := setCell(f, FrequencySheet, 1, i+2, e.Token); err != nil {
			return err
		}
		if err := setCell(f, FrequencySheet, 2, i+2, e.Count); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell ref: %w", err)
	}
	if err := f.SetCellValue(sheet, ref, v); err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	return nil
}
