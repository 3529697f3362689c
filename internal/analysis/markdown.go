package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders a compact report of the result suitable for standalone docs.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[SURVEY ANALYSIS]\n")
	b.WriteString(fmt.Sprintf("Questions: %s\n\n", strings.Join(r.Columns, " × ")))
	switch r.Kind {
	case KindFrequency:
		writeFrequencyMarkdown(&b, r)
	case KindContingency:
		writeContingencyMarkdown(&b, r.Contingency)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeFrequencyMarkdown(b *strings.Builder, r *Result) {
	b.WriteString("[FREQUENCIES]\n")
	if r.Frequency != nil {
		b.WriteString(fmt.Sprintf("Respondents: %d, answers: %d\n", r.Frequency.Respondents, r.Frequency.Total()))
	}
	if len(r.Entries) == 0 {
		b.WriteString("(no data)\n")
		return
	}
	b.WriteString("| Answer | Count | % |\n| --- | --- | --- |\n")
	for _, e := range r.Entries {
		b.WriteString(fmt.Sprintf("| %s | %d | %.1f%% |\n", safeVal(e.Token), e.Count, e.Percent))
	}
}

func writeContingencyMarkdown(b *strings.Builder, ct *ContingencyTable) {
	b.WriteString("[CONTINGENCY TABLE]\n")
	if ct.Empty() {
		b.WriteString("(no data)\n")
		return
	}
	b.WriteString(fmt.Sprintf("Rows: %s, columns: %s, respondents: %d\n", safeName(ct.RowVar), safeName(ct.ColVar), ct.Respondents))
	b.WriteString("| ")
	b.WriteString(safeVal(safeName(ct.RowVar)))
	for _, cl := range ct.ColLabels {
		b.WriteString(" | ")
		b.WriteString(safeVal(cl))
	}
	b.WriteString(" | Total |\n|")
	for i := 0; i < len(ct.ColLabels)+2; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	rowTotals := ct.RowTotals()
	for i, rl := range ct.RowLabels {
		b.WriteString("| ")
		b.WriteString(safeVal(rl))
		for _, v := range ct.Counts[i] {
			b.WriteString(fmt.Sprintf(" | %d", v))
		}
		b.WriteString(fmt.Sprintf(" | %d |\n", rowTotals[i]))
	}
	b.WriteString("| Total")
	for _, v := range ct.ColTotals() {
		b.WriteString(fmt.Sprintf(" | %d", v))
	}
	b.WriteString(fmt.Sprintf(" | %d |\n", ct.Total()))
}
