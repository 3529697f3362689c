package analysis

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Options controls tokenization and label ordering.
type Options struct {
	// Separator between answers in a multi-select cell. 0 means ','.
	Separator rune
	// Locale is a BCP 47 tag used to collate labels alphabetically.
	// Empty sorts by code point.
	Locale string
}

// DefaultOptions returns the comma separator and code point ordering.
func DefaultOptions() Options {
	return Options{Separator: ','}
}

func (o Options) separator() rune {
	if o.Separator == 0 {
		return ','
	}
	return o.Separator
}

// sortLabels orders labels in place using the configured locale.
func sortLabels(labels []string, locale string) {
	less := labelLess(locale)
	sort.SliceStable(labels, func(i, j int) bool { return less(labels[i], labels[j]) })
}

// labelLess compares with a collator for locale, or by code point when the
// locale is empty or not a valid tag.
func labelLess(locale string) func(a, b string) bool {
	locale = strings.TrimSpace(locale)
	if locale != "" {
		if tag, err := language.Parse(locale); err == nil {
			c := collate.New(tag)
			return func(a, b string) bool { return c.CompareString(a, b) < 0 }
		}
	}
	return func(a, b string) bool { return a < b }
}
