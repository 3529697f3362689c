package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveytab/internal/analysis"
	"github.com/KaramelBytes/surveytab/internal/logging"
	"github.com/KaramelBytes/surveytab/internal/parser"
	"github.com/KaramelBytes/surveytab/internal/utils"
)

var (
	anaFlags      tabFlags
	anaSearch     string
	anaOutputPath string
	anaExportPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Tabulate one question (frequencies) or two questions (contingency table)",
	Long: `Load a CSV/TSV/XLSX survey export, drop empty columns, empty rows and
duplicate rows, then tabulate the selected questions.

  surveytab analyze survey.xlsx                      # list questions
  surveytab analyze survey.xlsx --search color       # list matching questions
  surveytab analyze survey.xlsx -c Color             # frequency table
  surveytab analyze survey.xlsx -c Color -c Size     # contingency table
  surveytab analyze survey.xlsx -c Color -c Size --export out/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		req, lo, err := anaFlags.request(cmd, cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(req.Columns) > 2 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v (got %d); nothing was computed\n", analysis.ErrTooManyColumns, len(req.Columns))
			return nil
		}

		tbl, err := loadSanitized(path, lo)
		if err != nil {
			return err
		}

		if len(req.Columns) == 0 {
			printColumns(out, tbl, anaSearch)
			fmt.Fprintln(cmd.ErrOrStderr(), "ℹ Select one question with -c for frequencies, or two for a contingency table.")
			return nil
		}

		req.ID = uuid.NewString()
		res, err := analysis.Analyze(tbl, req)
		if err != nil {
			if errors.Is(err, analysis.ErrEmptyTable) {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			return err
		}
		logger.Debug("analysis complete",
			zap.String(logging.FieldRequestID, req.ID),
			zap.Strings(logging.FieldColumns, req.Columns),
			zap.String("kind", string(res.Kind)))
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}

		rendered, err := renderResult(res, anaFlags.format, shouldColorize(out) && anaOutputPath == "")
		if err != nil {
			return err
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(rendered)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote analysis to %s\n", anaOutputPath)
		} else {
			fmt.Fprintln(out, rendered)
		}

		if cmd.Flags().Changed("export") {
			target := exportPath(anaExportPath, cfg, res.Kind)
			if err := exportResult(target, res); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Exported %s table to %s\n", res.Kind, target)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaSearch, "search", "", "filter listed questions by case-insensitive substring (when no -c is given)")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the rendered analysis")
	analyzeCmd.Flags().StringVar(&anaExportPath, "export", "", "write the table as .xlsx to this file or directory (e.g. --export .)")
}

// loadSanitized reads path with the matching loader and drops empty columns,
// empty rows and duplicate rows.
func loadSanitized(path string, lo parser.LoadOptions) (*analysis.Table, error) {
	start := time.Now()
	raw, err := parser.LoadFile(path, lo)
	if err != nil {
		return nil, err
	}
	tbl := analysis.Sanitize(raw)
	logger.Debug("table loaded",
		zap.String(logging.FieldFile, path),
		zap.Int(logging.FieldRows, tbl.Len()),
		zap.Int("dropped_rows", raw.Len()-tbl.Len()),
		zap.Int("dropped_columns", len(raw.Columns)-len(tbl.Columns)),
		zap.Duration(logging.FieldDuration, time.Since(start)))
	return tbl, nil
}

func renderResult(res *analysis.Result, format string, colorize bool) (string, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return res.Markdown(), nil
	case "json":
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		if res.Kind == analysis.KindContingency {
			if res.Contingency.Empty() {
				return "(no data)", nil
			}
			return renderContingency(res.Contingency, colorize), nil
		}
		if len(res.Entries) == 0 {
			return "(no data)", nil
		}
		return renderFrequency(res.Frequency.Column, res.Entries, colorize), nil
	}
}

func exportResult(target string, res *analysis.Result) error {
	var buf bytes.Buffer
	var err error
	if res.Kind == analysis.KindContingency {
		err = analysis.ExportContingencyXLSX(&buf, res.Contingency)
	} else {
		err = analysis.ExportFrequencyXLSX(&buf, res.Frequency.Column, res.Entries)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	if err := utils.SafeWriteFile(target, buf.Bytes()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func printColumns(out io.Writer, tbl *analysis.Table, search string) {
	names := analysis.FilterColumns(tbl, search)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		idx := tbl.ColumnIndex(name)
		answered := 0
		for _, r := range tbl.Rows {
			if idx < len(r.Cells) && r.Cells[idx].Valid {
				answered++
			}
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", answered)})
	}
	fmt.Fprintf(out, "%s: %d respondents, %d of %d questions shown\n", tbl.Name, tbl.Len(), len(names), len(tbl.Columns))
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Question", "Answered"}, rows, []columnAlignment{alignLeft, alignRight}, nil, shouldColorize(out)))
	}
}
