package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/KaramelBytes/surveytab/internal/analysis"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, footer []string, colorize bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	// question text is shown as typed
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	if colorize {
		tw.Style().Color.Header = text.Colors{text.Bold, text.FgCyan}
		tw.Style().Color.Footer = text.Colors{text.Bold}
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		tw.AppendRow(padRow(row, columns))
	}
	if len(footer) > 0 {
		tw.AppendFooter(padRow(footer, columns))
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func padRow(row []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(row) {
			r[i] = row[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

// renderFrequency draws answer, count and share for one question.
func renderFrequency(column string, entries []analysis.FrequencyEntry, colorize bool) string {
	rows := make([][]string, 0, len(entries))
	total := 0
	for _, e := range entries {
		rows = append(rows, []string{e.Token, strconv.Itoa(e.Count), fmt.Sprintf("%.1f%%", e.Percent)})
		total += e.Count
	}
	footer := []string{"Total", strconv.Itoa(total), ""}
	return renderTable([]string{column, "Count", "%"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}, footer, colorize)
}

// renderContingency draws the cross-tab with row and column totals.
func renderContingency(ct *analysis.ContingencyTable, colorize bool) string {
	headers := append([]string{ct.RowVar + " \\ " + ct.ColVar}, ct.ColLabels...)
	headers = append(headers, "Total")
	aligns := make([]columnAlignment, len(headers))
	for i := 1; i < len(aligns); i++ {
		aligns[i] = alignRight
	}
	rowTotals := ct.RowTotals()
	rows := make([][]string, 0, len(ct.RowLabels))
	for i, rl := range ct.RowLabels {
		row := []string{rl}
		for _, v := range ct.Counts[i] {
			row = append(row, strconv.Itoa(v))
		}
		rows = append(rows, append(row, strconv.Itoa(rowTotals[i])))
	}
	footer := []string{"Total"}
	for _, v := range ct.ColTotals() {
		footer = append(footer, strconv.Itoa(v))
	}
	footer = append(footer, strconv.Itoa(ct.Total()))
	return renderTable(headers, rows, aligns, footer, colorize)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
