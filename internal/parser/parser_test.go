package parser_test

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/surveytab/internal/analysis"
	"github.com/KaramelBytes/surveytab/internal/parser"
)

func TestLoadFileCSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "wave1.csv")
	content := "Color,Size\n" +
		"\"Red, Blue\",S\n" +
		"Green,\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	tbl, err := parser.LoadFile(p, parser.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "wave1.csv", tbl.Name)
	assert.Equal(t, []string{"Color", "Size"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, analysis.Present("Red, Blue"), tbl.Rows[0].Cells[0])
	assert.Equal(t, analysis.Missing(), tbl.Rows[1].Cells[1])
}

func TestLoadFileTSVAndExplicitDelimiter(t *testing.T) {
	dir := t.TempDir()
	tsv := filepath.Join(dir, "a.TSV")
	require.NoError(t, os.WriteFile(tsv, []byte("Q1\tQ2\nx, y\tz\n"), 0o644))
	tbl, err := parser.LoadFile(tsv, parser.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q2"}, tbl.Columns)

	semi := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(semi, []byte("Q1;Q2\nx, y;z\n"), 0o644))
	tbl, err = parser.LoadFile(semi, parser.LoadOptions{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, analysis.Present("x, y"), tbl.Rows[0].Cells[0])
}

func TestLoadFileUnsupported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.docx")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	_, err := parser.LoadFile(p, parser.LoadOptions{})
	assert.ErrorIs(t, err, parser.ErrUnsupported)
	assert.False(t, parser.Supported("notes.docx"))
	assert.True(t, parser.Supported("Survey.XLSX"))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := parser.LoadFile(filepath.Join(t.TempDir(), "gone.csv"), parser.LoadOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadReaderMalformedCSV(t *testing.T) {
	data := []byte("A,B\n\"open quote,x\n")
	tbl, err := parser.LoadReader("upload.csv", bytes.NewReader(data), int64(len(data)), parser.LoadOptions{})
	require.Error(t, err)
	assert.Nil(t, tbl)
}

func TestLoadReaderXLSXRoundTrip(t *testing.T) {
	ct := &analysis.ContingencyTable{
		RowVar:    "Color",
		ColVar:    "Size",
		RowLabels: []string{"Blue", "Red"},
		ColLabels: []string{"S"},
		Counts:    [][]int{{1}, {1}},
	}
	var buf bytes.Buffer
	require.NoError(t, analysis.ExportContingencyXLSX(&buf, ct))

	tbl, err := parser.LoadReader("uploads/result.xlsx", bytes.NewReader(buf.Bytes()), int64(buf.Len()), parser.LoadOptions{SheetName: analysis.ContingencySheet})
	require.NoError(t, err)
	assert.Equal(t, "result.xlsx (sheet: Contingency)", tbl.Name)
	assert.Equal(t, []string{"Color", "S"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())

	bad := []byte(strings.Repeat("x", 64))
	_, err = parser.LoadReader("broken.xlsx", bytes.NewReader(bad), int64(len(bad)), parser.LoadOptions{})
	assert.Error(t, err)
}

