package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// FrequencyOrder selects how FrequencyTable.Sorted orders entries.
type FrequencyOrder string

const (
	// OrderCount sorts by descending count, ties by first appearance.
	OrderCount FrequencyOrder = "count"
	// OrderAppearance keeps the order tokens were first seen.
	OrderAppearance FrequencyOrder = "appearance"
	// OrderAlpha sorts tokens alphabetically using the configured locale.
	OrderAlpha FrequencyOrder = "alpha"
)

// ParseFrequencyOrder accepts count|appearance|alpha; empty means count.
func ParseFrequencyOrder(s string) (FrequencyOrder, error) {
	switch FrequencyOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderCount:
		return OrderCount, nil
	case OrderAppearance:
		return OrderAppearance, nil
	case OrderAlpha:
		return OrderAlpha, nil
	default:
		return "", fmt.Errorf("unsupported order: %s (use count|appearance|alpha)", s)
	}
}

// FrequencyTable maps each distinct token of one column to its count.
type FrequencyTable struct {
	Column string         `json:"column"`
	Counts map[string]int `json:"counts"`
	// Tokens lists distinct tokens in first-seen order.
	Tokens []string `json:"tokens"`
	// Respondents counts distinct rows that contributed at least one token.
	Respondents int `json:"respondents"`
}

// FrequencyEntry is one ranked line of a frequency table.
type FrequencyEntry struct {
	Token   string  `json:"token"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Frequencies counts how many expanded rows carry each token.
func Frequencies(rows []ExpandedRow) *FrequencyTable {
	ft := &FrequencyTable{Counts: make(map[string]int)}
	respondents := make(map[int]struct{})
	for _, r := range rows {
		if _, ok := ft.Counts[r.Token]; !ok {
			ft.Tokens = append(ft.Tokens, r.Token)
		}
		ft.Counts[r.Token]++
		respondents[r.RowID] = struct{}{}
	}
	ft.Respondents = len(respondents)
	return ft
}

// Total is the number of expanded rows behind the table.
func (f *FrequencyTable) Total() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, c := range f.Counts {
		n += c
	}
	return n
}

// Share returns the percentage of all expanded rows carrying token.
func (f *FrequencyTable) Share(token string) float64 {
	total := f.Total()
	if total == 0 {
		return 0
	}
	return float64(f.Counts[token]) * 100.0 / float64(total)
}

// Empty reports whether no tokens were counted.
func (f *FrequencyTable) Empty() bool { return f == nil || len(f.Tokens) == 0 }

// Sorted returns entries in the requested order. locale only affects OrderAlpha.
func (f *FrequencyTable) Sorted(order FrequencyOrder, locale string) []FrequencyEntry {
	if f.Empty() {
		return []FrequencyEntry{}
	}
	total := f.Total()
	out := make([]FrequencyEntry, 0, len(f.Tokens))
	for _, tok := range f.Tokens {
		e := FrequencyEntry{Token: tok, Count: f.Counts[tok]}
		if total > 0 {
			e.Percent = float64(e.Count) * 100.0 / float64(total)
		}
		out = append(out, e)
	}
	switch order {
	case OrderAppearance:
	case OrderAlpha:
		less := labelLess(locale)
		sort.SliceStable(out, func(i, j int) bool { return less(out[i].Token, out[j].Token) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	}
	return out
}
