package analysis

import (
	"fmt"
	"strings"
)

// ResultKind tells callers which half of a Result is populated.
type ResultKind string

const (
	KindFrequency   ResultKind = "frequency"
	KindContingency ResultKind = "contingency"
)

// AnalysisRequest carries one user interaction: the chosen questions and how
// to present them. Every call to Analyze recomputes from the table.
type AnalysisRequest struct {
	ID        string         `json:"id,omitempty"`
	Columns   []string       `json:"columns"`
	Chart     ChartKind      `json:"chart,omitempty"`
	Order     FrequencyOrder `json:"order,omitempty"`
	Transpose bool           `json:"transpose,omitempty"`
	Options   Options        `json:"-"`
}

// Result is what the presentation layer renders.
type Result struct {
	RequestID   string            `json:"request_id,omitempty"`
	Kind        ResultKind        `json:"kind"`
	Columns     []string          `json:"columns"`
	Frequency   *FrequencyTable   `json:"frequency,omitempty"`
	Entries     []FrequencyEntry  `json:"entries,omitempty"`
	Contingency *ContingencyTable `json:"contingency,omitempty"`
	Chart       *Chart            `json:"chart,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// Analyze validates the selection and computes a frequency table (one column)
// or a contingency table (two columns). t is expected to be sanitized.
func Analyze(t *Table, req AnalysisRequest) (*Result, error) {
	switch n := len(req.Columns); {
	case n == 0:
		return nil, ErrNoColumns
	case n > 2:
		return nil, fmt.Errorf("%w: got %d", ErrTooManyColumns, n)
	}
	if t == nil || len(t.Columns) == 0 {
		return nil, ErrEmptyTable
	}
	for _, c := range req.Columns {
		if t.ColumnIndex(c) < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	res := &Result{RequestID: req.ID, Columns: append([]string(nil), req.Columns...)}

	if len(req.Columns) == 1 {
		col := t.Columns[t.ColumnIndex(req.Columns[0])]
		rows, err := Expand(t, col, req.Options)
		if err != nil {
			return nil, err
		}
		ft := Frequencies(rows)
		ft.Column = col
		entries := ft.Sorted(req.Order, req.Options.Locale)
		chart, err := FrequencyChart(req.Chart, col, entries)
		if err != nil {
			return nil, err
		}
		res.Kind = KindFrequency
		res.Frequency = ft
		res.Entries = entries
		res.Chart = chart
		if ft.Empty() {
			res.Warnings = append(res.Warnings, fmt.Sprintf("no answers found in %q", col))
		}
		return res, nil
	}

	ct, err := CrossTab(t, req.Columns[0], req.Columns[1], req.Options)
	if err != nil {
		return nil, err
	}
	if req.Transpose {
		ct = ct.Transpose()
	}
	chart, err := ContingencyChart(req.Chart, ct)
	if err != nil {
		return nil, err
	}
	res.Kind = KindContingency
	res.Contingency = ct
	res.Chart = chart
	if ct.Empty() {
		res.Warnings = append(res.Warnings, "no respondents answered both questions")
	}
	return res, nil
}

// FilterColumns returns the columns whose name contains query, ignoring case.
// An empty query returns every column.
func FilterColumns(t *Table, query string) []string {
	if t == nil {
		return []string{}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if q == "" || strings.Contains(strings.ToLower(c), q) {
			out = append(out, c)
		}
	}
	return out
}
