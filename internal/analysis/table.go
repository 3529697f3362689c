package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Cell is a single optional spreadsheet value. Valid is false for missing cells.
type Cell struct {
	Value string
	Valid bool
}

// Present returns a non-missing cell holding s.
func Present(s string) Cell { return Cell{Value: s, Valid: true} }

// Missing returns an absent cell.
func Missing() Cell { return Cell{} }

// naMarkers are the spreadsheet placeholders read as "no answer", matching
// the default NA strings of common dataframe loaders.
var naMarkers = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true,
	"N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// cellFromRaw treats blank, whitespace-only and NA-marker input as missing.
func cellFromRaw(s string) Cell {
	v := strings.TrimSpace(s)
	if v == "" || naMarkers[v] {
		return Missing()
	}
	return Present(s)
}

// Row is one respondent. ID is the row's position in the loaded sheet and is
// preserved by Sanitize so expanded tokens can be joined back to it.
type Row struct {
	ID    int
	Cells []Cell
}

// Table is an ordered set of rows keyed by column position.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// NewTable builds a table from a header and raw string records. The table is
// as wide as the widest of header and records: data under a blank or absent
// header cell becomes an "Unnamed: N" column. Short records are padded with
// missing cells; blank values are missing.
func NewTable(name string, header []string, records [][]string) *Table {
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	if width > len(header) {
		padded := make([]string, width)
		copy(padded, header)
		header = padded
	}
	cols := uniqueHeaders(header)
	t := &Table{Name: name, Columns: cols, Rows: make([]Row, 0, len(records))}
	for i, rec := range records {
		cells := make([]Cell, len(cols))
		for j := range cols {
			if j < len(rec) {
				cells[j] = cellFromRaw(rec[j])
			}
		}
		t.Rows = append(t.Rows, Row{ID: i, Cells: cells})
	}
	return t
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	// fall back to a trimmed, case-insensitive match for hand-typed names
	want := strings.ToLower(strings.TrimSpace(name))
	for i, c := range t.Columns {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// LoadCSV reads a delimited file into a Table. The first record is the header.
// If delim is 0 it is chosen from the file extension.
func LoadCSV(path string, delim rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ReadCSV(f, filepath.Base(path), delim)
}

// ReadCSV reads delimited records from r. A header-only or empty input yields
// an empty table; a malformed record fails the whole load.
func ReadCSV(src io.Reader, name string, delim rune) (*Table, error) {
	if delim == 0 {
		delim = ','
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Name: name}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return NewTable(name, header, records), nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}

// uniqueHeaders names blank headers "Unnamed: N" and suffixes repeats with
// ".1", ".2", ... so every column is addressable by name.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	used := map[string]bool{}
	next := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for used[name] {
			next[base]++
			name = fmt.Sprintf("%s.%d", base, next[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
