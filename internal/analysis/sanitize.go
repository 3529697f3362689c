package analysis

import (
	"strconv"
	"strings"
)

// Sanitize drops columns with no values, then rows with no values, then rows
// identical to an earlier row. The input is not modified and row IDs survive.
func Sanitize(t *Table) *Table {
	if t == nil {
		return &Table{}
	}
	keep := make([]int, 0, len(t.Columns))
	for j := range t.Columns {
		for _, r := range t.Rows {
			if j < len(r.Cells) && r.Cells[j].Valid {
				keep = append(keep, j)
				break
			}
		}
	}
	out := &Table{Name: t.Name, Columns: make([]string, len(keep))}
	for i, j := range keep {
		out.Columns[i] = t.Columns[j]
	}

	seen := make(map[string]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		cells := make([]Cell, len(keep))
		hasValue := false
		for i, j := range keep {
			if j < len(r.Cells) {
				cells[i] = r.Cells[j]
			}
			if cells[i].Valid {
				hasValue = true
			}
		}
		if !hasValue {
			continue
		}
		key := rowKey(cells)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, Row{ID: r.ID, Cells: cells})
	}
	return out
}

// rowKey encodes cells length-prefixed so distinct rows never collide.
func rowKey(cells []Cell) string {
	var b strings.Builder
	for _, c := range cells {
		if !c.Valid {
			b.WriteString("-;")
			continue
		}
		b.WriteString(strconv.Itoa(len(c.Value)))
		b.WriteByte(':')
		b.WriteString(c.Value)
	}
	return b.String()
}
