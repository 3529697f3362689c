package analysis

import "strings"

// Tokenize splits a multi-answer cell on commas that are not inside
// parentheses. See TokenizeText for the exact rule.
func Tokenize(c Cell) []string {
	if !c.Valid {
		return []string{}
	}
	return TokenizeText(c.Value, ',')
}

// TokenizeText splits s on sep, trims every fragment and drops empty ones.
// A separator is not a split point when either
//   - more '(' than ')' have been seen before it (an unclosed group keeps the
//     rest of the string together), or
//   - the next parenthesis after it is a ')' with no matching '(' before it.
//
// A ')' without a matching '(' never makes the depth negative.
func TokenizeText(s string, sep rune) []string {
	if sep == 0 {
		sep = ','
	}
	runes := []rune(s)
	// nextClose[i] reports whether the first paren at or after i is ')'
	nextClose := make([]bool, len(runes)+1)
	for i := len(runes) - 1; i >= 0; i-- {
		switch runes[i] {
		case '(':
			nextClose[i] = false
		case ')':
			nextClose[i] = true
		default:
			nextClose[i] = nextClose[i+1]
		}
	}

	out := []string{}
	emit := func(frag []rune) {
		if t := strings.TrimSpace(string(frag)); t != "" {
			out = append(out, t)
		}
	}
	depth, start := 0, 0
	for i, r := range runes {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == sep:
			if depth > 0 || nextClose[i+1] {
				continue
			}
			emit(runes[start:i])
			start = i + 1
		}
	}
	emit(runes[start:])
	return out
}
