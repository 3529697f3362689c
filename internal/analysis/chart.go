package analysis

import (
	"fmt"
	"strings"
)

// ChartKind names a render-ready chart layout.
type ChartKind string

const (
	ChartBar        ChartKind = "bar"
	ChartPie        ChartKind = "pie"
	ChartGroupedBar ChartKind = "grouped_bar"
	ChartPieRows    ChartKind = "pie_rows"
	ChartPieCols    ChartKind = "pie_cols"
)

// Chart is plain data for a presentation layer to draw.
type Chart struct {
	Kind   ChartKind     `json:"kind"`
	Title  string        `json:"title"`
	XAxis  string        `json:"x_axis,omitempty"`
	YAxis  string        `json:"y_axis,omitempty"`
	Series []ChartSeries `json:"series"`
}

// ChartSeries is one named run of points.
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// ChartPoint is a labelled value; Percent is filled for pie slices.
type ChartPoint struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent,omitempty"`
}

// ParseChartKind normalizes a user-supplied chart name.
func ParseChartKind(s string) (ChartKind, error) {
	k := ChartKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch k {
	case "", ChartBar, ChartPie, ChartGroupedBar, ChartPieRows, ChartPieCols:
		return k, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedChart, s)
}

// FrequencyChart lays out a bar or pie chart for one question.
func FrequencyChart(kind ChartKind, column string, entries []FrequencyEntry) (*Chart, error) {
	if kind == "" {
		kind = ChartBar
	}
	ch := &Chart{Kind: kind, Title: column}
	switch kind {
	case ChartBar:
		ch.XAxis = column
		ch.YAxis = "Frequency"
	case ChartPie:
	default:
		return nil, fmt.Errorf("%w: %s for a single column", ErrUnsupportedChart, kind)
	}
	s := ChartSeries{Name: column, Points: make([]ChartPoint, 0, len(entries))}
	for _, e := range entries {
		p := ChartPoint{Label: e.Token, Value: float64(e.Count)}
		if kind == ChartPie {
			p.Percent = e.Percent
		}
		s.Points = append(s.Points, p)
	}
	ch.Series = []ChartSeries{s}
	return ch, nil
}

// ContingencyChart lays out grouped bars, or a pie over row or column totals.
func ContingencyChart(kind ChartKind, ct *ContingencyTable) (*Chart, error) {
	if kind == "" {
		kind = ChartGroupedBar
	}
	switch kind {
	case ChartGroupedBar:
		ch := &Chart{
			Kind:   kind,
			Title:  fmt.Sprintf("%s vs %s", ct.RowVar, ct.ColVar),
			XAxis:  ct.RowVar,
			YAxis:  "Frequency",
			Series: make([]ChartSeries, 0, len(ct.ColLabels)),
		}
		for j, cl := range ct.ColLabels {
			s := ChartSeries{Name: cl, Points: make([]ChartPoint, 0, len(ct.RowLabels))}
			for i, rl := range ct.RowLabels {
				s.Points = append(s.Points, ChartPoint{Label: rl, Value: float64(ct.Counts[i][j])})
			}
			ch.Series = append(ch.Series, s)
		}
		return ch, nil
	case ChartPieRows:
		return pieChart(kind, ct.RowVar, ct.RowLabels, ct.RowTotals()), nil
	case ChartPieCols:
		return pieChart(kind, ct.ColVar, ct.ColLabels, ct.ColTotals()), nil
	default:
		return nil, fmt.Errorf("%w: %s for two columns", ErrUnsupportedChart, kind)
	}
}

func pieChart(kind ChartKind, variable string, labels []string, totals []int) *Chart {
	sum := 0
	for _, v := range totals {
		sum += v
	}
	s := ChartSeries{Name: variable, Points: make([]ChartPoint, 0, len(labels))}
	for i, l := range labels {
		p := ChartPoint{Label: l, Value: float64(totals[i])}
		if sum > 0 {
			p.Percent = float64(totals[i]) * 100.0 / float64(sum)
		}
		s.Points = append(s.Points, p)
	}
	return &Chart{Kind: kind, Title: "Distribution by " + variable, Series: []ChartSeries{s}}
}
