package analysis

import "fmt"

// ContingencyTable counts co-occurring answers of two questions. Rows are the
// distinct tokens of RowVar, columns the distinct tokens of ColVar.
type ContingencyTable struct {
	RowVar    string   `json:"row_var"`
	ColVar    string   `json:"col_var"`
	RowLabels []string `json:"row_labels"`
	ColLabels []string `json:"col_labels"`
	// Counts is row-major: Counts[i][j] pairs RowLabels[i] with ColLabels[j].
	Counts [][]int `json:"counts"`
	// Respondents counts rows that answered both questions.
	Respondents int `json:"respondents"`
}

// CrossTab builds the contingency table of columns a and b. Rows missing
// either answer are dropped; every remaining row contributes the cross
// product of its a tokens and b tokens.
func CrossTab(t *Table, a, b string, opt Options) (*ContingencyTable, error) {
	ia := t.ColumnIndex(a)
	if ia < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, a)
	}
	ib := t.ColumnIndex(b)
	if ib < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, b)
	}
	ct := &ContingencyTable{
		RowVar:    t.Columns[ia],
		ColVar:    t.Columns[ib],
		RowLabels: []string{},
		ColLabels: []string{},
	}

	paired := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if cellAt(r, ia).Valid && cellAt(r, ib).Valid {
			paired = append(paired, r)
		}
	}
	sep := opt.separator()
	left := expandIndex(paired, ia, sep)
	right := expandIndex(paired, ib, sep)

	byRow := make(map[int][]string, len(paired))
	for _, e := range right {
		byRow[e.RowID] = append(byRow[e.RowID], e.Token)
	}
	type pair struct{ a, b string }
	counts := make(map[pair]int)
	rowSeen := map[string]struct{}{}
	colSeen := map[string]struct{}{}
	respondents := map[int]struct{}{}
	for _, l := range left {
		for _, tok := range byRow[l.RowID] {
			counts[pair{l.Token, tok}]++
			respondents[l.RowID] = struct{}{}
			if _, ok := rowSeen[l.Token]; !ok {
				rowSeen[l.Token] = struct{}{}
				ct.RowLabels = append(ct.RowLabels, l.Token)
			}
			if _, ok := colSeen[tok]; !ok {
				colSeen[tok] = struct{}{}
				ct.ColLabels = append(ct.ColLabels, tok)
			}
		}
	}
	ct.Respondents = len(respondents)
	sortLabels(ct.RowLabels, opt.Locale)
	sortLabels(ct.ColLabels, opt.Locale)

	ct.Counts = make([][]int, len(ct.RowLabels))
	for i, rl := range ct.RowLabels {
		ct.Counts[i] = make([]int, len(ct.ColLabels))
		for j, cl := range ct.ColLabels {
			ct.Counts[i][j] = counts[pair{rl, cl}]
		}
	}
	return ct, nil
}

func cellAt(r Row, idx int) Cell {
	if idx < 0 || idx >= len(r.Cells) {
		return Missing()
	}
	return r.Cells[idx]
}

// Count returns the count for (rowLabel, colLabel), zero when unseen.
func (ct *ContingencyTable) Count(rowLabel, colLabel string) int {
	i := indexOf(ct.RowLabels, rowLabel)
	j := indexOf(ct.ColLabels, colLabel)
	if i < 0 || j < 0 {
		return 0
	}
	return ct.Counts[i][j]
}

// Empty reports whether the table has no cells.
func (ct *ContingencyTable) Empty() bool {
	return ct == nil || len(ct.RowLabels) == 0 || len(ct.ColLabels) == 0
}

// RowTotals sums each row.
func (ct *ContingencyTable) RowTotals() []int {
	out := make([]int, len(ct.RowLabels))
	for i, row := range ct.Counts {
		for _, v := range row {
			out[i] += v
		}
	}
	return out
}

// ColTotals sums each column.
func (ct *ContingencyTable) ColTotals() []int {
	out := make([]int, len(ct.ColLabels))
	for _, row := range ct.Counts {
		for j, v := range row {
			out[j] += v
		}
	}
	return out
}

// Total is the number of counted pairs.
func (ct *ContingencyTable) Total() int {
	n := 0
	for _, v := range ct.RowTotals() {
		n += v
	}
	return n
}

// Transpose swaps the roles of the two questions.
func (ct *ContingencyTable) Transpose() *ContingencyTable {
	out := &ContingencyTable{
		RowVar:      ct.ColVar,
		ColVar:      ct.RowVar,
		RowLabels:   append([]string{}, ct.ColLabels...),
		ColLabels:   append([]string{}, ct.RowLabels...),
		Counts:      make([][]int, len(ct.ColLabels)),
		Respondents: ct.Respondents,
	}
	for j := range ct.ColLabels {
		out.Counts[j] = make([]int, len(ct.RowLabels))
		for i := range ct.RowLabels {
			out.Counts[j][i] = ct.Counts[i][j]
		}
	}
	return out
}

func indexOf(labels []string, want string) int {
	for i, l := range labels {
		if l == want {
			return i
		}
	}
	return -1
}
