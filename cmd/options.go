package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveytab/internal/analysis"
	cfgpkg "github.com/KaramelBytes/surveytab/internal/config"
	"github.com/KaramelBytes/surveytab/internal/parser"
)

// tabFlags are the selection and presentation flags shared by analyze and
// analyze-batch.
type tabFlags struct {
	columns    []string
	chart      string
	order      string
	transpose  bool
	format     string
	separator  string
	locale     string
	delimiter  string
	sheetName  string
	sheetIndex int
}

func (f *tabFlags) register(c *cobra.Command) {
	c.Flags().StringArrayVarP(&f.columns, "column", "c", nil, "question (column) to tabulate; give once for frequencies, twice for a contingency table")
	c.Flags().StringVar(&f.chart, "chart", "", "chart data to include: bar|pie (one column), grouped_bar|pie_rows|pie_cols (two columns)")
	c.Flags().StringVar(&f.order, "order", "", "frequency order: count|appearance|alpha (default from config)")
	c.Flags().BoolVar(&f.transpose, "transpose", false, "swap rows and columns of the contingency table")
	c.Flags().StringVarP(&f.format, "format", "f", "table", "output format: table|markdown|json")
	c.Flags().StringVar(&f.separator, "separator", "", "separator between answers in multi-select cells (default from config)")
	c.Flags().StringVar(&f.locale, "locale", "", "BCP 47 locale for alphabetical ordering, e.g. es (default from config)")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided; default from config)")
}

// request merges flags over the loaded configuration.
func (f *tabFlags) request(c *cobra.Command, g *cfgpkg.Global) (analysis.AnalysisRequest, parser.LoadOptions, error) {
	var req analysis.AnalysisRequest
	var lo parser.LoadOptions
	if g == nil {
		g = &cfgpkg.Global{}
	}

	req.Columns = f.columns
	chart, err := analysis.ParseChartKind(f.chart)
	if err != nil {
		return req, lo, err
	}
	req.Chart = chart

	order := g.FrequencyOrder
	if f.order != "" {
		order = f.order
	}
	if req.Order, err = analysis.ParseFrequencyOrder(order); err != nil {
		return req, lo, err
	}

	req.Transpose = g.Transpose
	if c.Flags().Changed("transpose") {
		req.Transpose = f.transpose
	}

	req.Options = analysis.DefaultOptions()
	req.Options.Separator = g.SeparatorRune()
	if f.separator != "" {
		sep, err := cfgpkg.ParseSeparator(f.separator)
		if err != nil {
			return req, lo, err
		}
		req.Options.Separator = sep
	}
	req.Options.Locale = g.CollationLocale
	if f.locale != "" {
		req.Options.Locale = f.locale
	}

	switch f.delimiter {
	case "":
	case ",":
		lo.Delimiter = ','
	case "\t", "tab":
		lo.Delimiter = '\t'
	case ";":
		lo.Delimiter = ';'
	default:
		return req, lo, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	lo.SheetName = f.sheetName
	lo.SheetIndex = f.sheetIndex
	if lo.SheetName == "" && lo.SheetIndex <= 0 {
		lo.SheetIndex = g.DefaultSheetIndex
	}

	switch strings.ToLower(f.format) {
	case "table", "markdown", "md", "json":
	default:
		return req, lo, fmt.Errorf("unsupported --format: %s (use table|markdown|json)", f.format)
	}
	return req, lo, nil
}

// formatExt maps an output format to the file extension used for reports.
func formatExt(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return ".json"
	case "markdown", "md":
		return ".md"
	default:
		return ".txt"
	}
}

// exportPath resolves --export against export_dir; a directory target gets
// the default workbook name.
func exportPath(target string, g *cfgpkg.Global, kind analysis.ResultKind) string {
	name := "tabla_contingencia.xlsx"
	if kind == analysis.KindFrequency {
		name = "tabla_frecuencias.xlsx"
	}
	if target == "" || strings.HasSuffix(target, "/") || strings.HasSuffix(target, string(filepath.Separator)) {
		target = filepath.Join(target, name)
	} else if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, name)
	}
	if !filepath.IsAbs(target) && g != nil && g.ExportDir != "" && g.ExportDir != "." {
		target = filepath.Join(g.ExportDir, target)
	}
	return target
}
