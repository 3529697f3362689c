package analysis

import "fmt"

// ExpandedRow is one (respondent, answer) pair produced by Expand.
type ExpandedRow struct {
	RowID int    `json:"row_id"`
	Token string `json:"token"`
}

// Expand tokenizes every present cell of column and emits one ExpandedRow per
// token, in row order and then token order. Missing cells emit nothing.
func Expand(t *Table, column string, opt Options) ([]ExpandedRow, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	return expandIndex(t.Rows, idx, opt.separator()), nil
}

func expandIndex(rows []Row, idx int, sep rune) []ExpandedRow {
	out := make([]ExpandedRow, 0, len(rows))
	for _, r := range rows {
		if idx >= len(r.Cells) || !r.Cells[idx].Valid {
			continue
		}
		for _, tok := range TokenizeText(r.Cells[idx].Value, sep) {
			out = append(out, ExpandedRow{RowID: r.ID, Token: tok})
		}
	}
	return out
}
