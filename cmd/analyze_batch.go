package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveytab/internal/analysis"
	"github.com/KaramelBytes/surveytab/internal/logging"
	"github.com/KaramelBytes/surveytab/internal/parser"
	"github.com/KaramelBytes/surveytab/internal/utils"
)

var (
	abFlags    tabFlags
	abOutDir   string
	abExport   bool
	abQuiet    bool
	abFailFast bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Run the same tabulation over several survey files (e.g. one per wave)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		req, lo, err := abFlags.request(cmd, cfg)
		if err != nil {
			return err
		}
		switch n := len(req.Columns); {
		case n == 0:
			return listBatchColumns(cmd, files, lo)
		case n > 2:
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v (got %d); nothing was computed\n", analysis.ErrTooManyColumns, n)
			return nil
		}
		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		total := len(files)
		failed := 0
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			err := runBatchFile(cmd, path, req, lo)
			if err == nil {
				continue
			}
			if abFailFast {
				return fmt.Errorf("%s: %w", path, err)
			}
			failed++
			logger.Warn("batch file failed", zap.String(logging.FieldFile, path), zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Skipped %s: %v\n", filepath.Base(path), err)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

func runBatchFile(cmd *cobra.Command, path string, req analysis.AnalysisRequest, lo parser.LoadOptions) error {
	out := cmd.OutOrStdout()
	tbl, err := loadSanitized(path, lo)
	if err != nil {
		return err
	}
	req.ID = uuid.NewString()
	res, err := analysis.Analyze(tbl, req)
	if err != nil {
		if errors.Is(err, analysis.ErrUnknownColumn) && !abQuiet {
			printColumns(cmd.ErrOrStderr(), tbl, "")
		}
		return err
	}
	for _, w := range res.Warnings {
		if !abQuiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
		}
	}
	rendered, err := renderResult(res, abFlags.format, false)
	if err != nil {
		return err
	}
	if abOutDir == "" {
		if !abQuiet {
			fmt.Fprintln(out, rendered)
		}
		return nil
	}

	base := batchBaseName(path, lo.SheetName)
	outFile := uniquePath(abOutDir, base, formatExt(abFlags.format))
	if outFile != filepath.Join(abOutDir, base+formatExt(abFlags.format)) && !abQuiet {
		fmt.Fprintf(out, "⚠ Detected existing report, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
	}
	if err := utils.SafeWriteFile(outFile, []byte(rendered)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if !abQuiet {
		fmt.Fprintf(out, "✓ Wrote %s\n", outFile)
	}
	if abExport {
		xlsx := strings.TrimSuffix(outFile, filepath.Ext(outFile)) + ".xlsx"
		if err := exportResult(xlsx, res); err != nil {
			return err
		}
		if !abQuiet {
			fmt.Fprintf(out, "✓ Exported %s\n", xlsx)
		}
	}
	return nil
}

// listBatchColumns shows the questions of every file when nothing was
// selected. Unreadable files are skipped with a warning.
func listBatchColumns(cmd *cobra.Command, files []string, lo parser.LoadOptions) error {
	out := cmd.OutOrStdout()
	for _, path := range files {
		tbl, err := loadSanitized(path, lo)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Skipped %s: %v\n", filepath.Base(path), err)
			continue
		}
		printColumns(out, tbl, "")
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "ℹ Select one question with -c for frequencies, or two for a contingency table.")
	return nil
}

// batchBaseName derives a report name from the input file and, when given,
// a slug of the sheet name.
func batchBaseName(path, sheetName string) string {
	base := filepath.Base(path)
	safe := strings.TrimSuffix(base, filepath.Ext(base))
	if sheetName == "" {
		return safe
	}
	s := strings.ToLower(strings.TrimSpace(sheetName))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	ss := strings.Trim(b.String(), "-")
	if ss == "" {
		ss = "sheet"
	}
	return safe + "__sheet-" + ss
}

// uniquePath returns dir/base+ext, or dir/base__N+ext for the first free N >= 2.
func uniquePath(dir, base, ext string) string {
	outFile := filepath.Join(dir, base+ext)
	if _, statErr := os.Stat(outFile); statErr != nil {
		return outFile
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "write one report per file into this directory instead of stdout")
	analyzeBatchCmd.Flags().BoolVar(&abExport, "export", false, "with --out-dir, also write each table as .xlsx next to its report")
	analyzeBatchCmd.Flags().BoolVar(&abFailFast, "fail-fast", false, "stop at the first file that cannot be analyzed")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
