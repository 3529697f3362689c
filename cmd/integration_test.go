package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/surveytab/internal/analysis"
)

const surveyCSV = "Color,Size,Comments\n" +
	"Red,S,\n" +
	"\"Red, Blue\",M,\n" +
	",L,\n" +
	"Red,S,\n" +
	"\"Green (light, dark)\",\"S, M\",\n"

// resetFlags restores every flag to its default so bound variables do not
// leak between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout and stderr.
func runCmd(t *testing.T, args ...string) (string, string) {
	t.Helper()
	stdout, stderr, err := execCmd(t, args...)
	require.NoError(t, err, "command %v failed: %s", args, stderr)
	return stdout, stderr
}

func execCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// isolate points HOME at a temp dir so config is read from and written there.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SURVEYTAB_LOG_LEVEL", "error")
	return home
}

func writeSurvey(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(surveyCSV), 0o644))
	return p
}

func TestCLI_AnalyzeListsColumnsWithoutSelection(t *testing.T) {
	home := isolate(t)
	p := writeSurvey(t, home, "survey.csv")

	out, errOut := runCmd(t, "analyze", p)
	assert.Contains(t, out, "survey.csv: 4 respondents, 2 of 2 questions shown")
	assert.Contains(t, out, "Color")
	assert.NotContains(t, out, "Comments")
	assert.Contains(t, errOut, "ℹ Select one question")

	out, _ = runCmd(t, "analyze", p, "--search", "SIZ")
	assert.Contains(t, out, "1 of 2 questions shown")
}

func TestCLI_AnalyzeFrequencyTable(t *testing.T) {
	home := isolate(t)
	p := writeSurvey(t, home, "survey.csv")

	out, _ := runCmd(t, "analyze", p, "-c", "Color")
	assert.Contains(t, out, "Red")
	assert.Contains(t, out, "Green (light, dark)")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "Total")
}

func TestCLI_AnalyzeContingencyJSON(t *testing.T) {
	home := isolate(t)
	p := writeSurvey(t, home, "survey.csv")

	out, _ := runCmd(t, "analyze", p, "-c", "Color", "-c", "Size", "--format", "json", "--chart", "pie-cols")
	var res analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, analysis.KindContingency, res.Kind)
	assert.Equal(t, []string{"Blue", "Green (light, dark)", "Red"}, res.Contingency.RowLabels)
	assert.Equal(t, 1, res.Contingency.Count("Red", "S"))
	assert.Equal(t, 1, res.Contingency.Count("Red", "M"))
	assert.Equal(t, 1, res.Contingency.Count("Green (light, dark)", "M"))
	assert.Equal(t, analysis.ChartPieCols, res.Chart.Kind)
	assert.NotEmpty(t, res.RequestID)
}

func TestCLI_AnalyzeMarkdownOutputAndExport(t *testing.T) {
	home := isolate(t)
	p := writeSurvey(t, home, "survey.csv")
	report := filepath.Join(home, "report.md")
	exportDir := filepath.Join(home, "exports") + string(filepath.Separator)

	out, _ := runCmd(t, "analyze", p, "-c", "Color", "-c", "Size", "--transpose", "--format", "markdown", "-o", report, "--export", exportDir)
	assert.Contains(t, out, "✓ Wrote analysis to "+report)
	assert.Contains(t, out, "✓ Exported contingency table to")

	md, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(md), "[CONTINGENCY TABLE]")
	assert.Contains(t, string(md), "| Size | Blue | Green (light, dark) | Red | Total |")

	xlsx := filepath.Join(home, "exports", "tabla_contingencia.xlsx")
	tbl, err := analysis.LoadXLSX(xlsx, analysis.ContingencySheet, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Size", "Blue", "Green (light, dark)", "Red"}, tbl.Columns)
}

func TestCLI_AnalyzeTooManyColumnsWarns(t *testing.T) {
	home := isolate(t)
	p := writeSurvey(t, home, "survey.csv")

	out, errOut := runCmd(t, "analyze", p, "-c", "Color", "-c", "Size", "-c", "Comments")
	assert.Empty(t, out)
	assert.Contains(t, errOut, "⚠ Warning: combined analysis supports at most two columns (got 3)")
}

func TestCLI_AnalyzeErrors(t *testing.T) {
	home := isolate(t)
	p := writeSurvey(t, home, "survey.csv")

	_, _, err := execCmd(t, "analyze", p, "-c", "Shape")
	assert.ErrorIs(t, err, analysis.ErrUnknownColumn)

	_, _, err = execCmd(t, "analyze", p, "-c", "Color", "--chart", "scatter")
	assert.ErrorIs(t, err, analysis.ErrUnsupportedChart)

	_, _, err = execCmd(t, "analyze", p, "-c", "Color", "--format", "yaml")
	assert.Error(t, err)
}

func TestCLI_Columns(t *testing.T) {
	home := isolate(t)
	p := writeSurvey(t, home, "survey.csv")

	out, _ := runCmd(t, "columns", p, "-s", "col")
	assert.Contains(t, out, "1 of 2 questions shown")
	assert.Contains(t, out, "Color")
	assert.Contains(t, out, "3")
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)

	out, _ := runCmd(t, "config", "set", "frequency_order", "alpha")
	assert.Contains(t, out, "✓ Saved config")
	_, err := os.Stat(filepath.Join(home, ".surveytab", "config.yaml"))
	require.NoError(t, err)

	out, _ = runCmd(t, "config", "show")
	assert.Contains(t, out, "frequency_order: alpha")
	assert.Contains(t, out, "collation_locale: \"\"")

	_, _, err = execCmd(t, "config", "set", "frequency_order", "random")
	assert.Error(t, err)
}

func TestCLI_ConfigOrderAppliesToAnalyze(t *testing.T) {
	home := isolate(t)
	p := writeSurvey(t, home, "survey.csv")
	runCmd(t, "config", "set", "frequency_order", "alpha")

	out, _ := runCmd(t, "analyze", p, "-c", "Color", "--format", "json")
	var res analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Entries, 3)
	assert.Equal(t, "Blue", res.Entries[0].Token)
}
