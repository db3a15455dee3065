package lexicon

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchMode selects how a phrase is located in text
type MatchMode string

const (
	// MatchWord requires the phrase not to be flanked by letters or digits
	MatchWord MatchMode = "word"
	// MatchSubstring accepts any occurrence, including inside longer words
	MatchSubstring MatchMode = "substring"
)

// Matcher finds phrases in lower-cased text
type Matcher struct {
	Mode MatchMode
}

// Contains reports whether phrase occurs in text
func (m Matcher) Contains(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	if m.Mode == MatchSubstring {
		return strings.Contains(text, phrase)
	}
	return m.Count(text, phrase) > 0
}

// ContainsAny reports whether any of the phrases occurs in text
func (m Matcher) ContainsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if m.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// Count returns the number of non-overlapping occurrences of phrase in text
func (m Matcher) Count(text, phrase string) int {
	if phrase == "" {
		return 0
	}
	if m.Mode == MatchSubstring {
		return strings.Count(text, phrase)
	}

	count := 0
	offset := 0
	for offset < len(text) {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(phrase)
		if isBoundary(text, start, end, phrase) {
			count++
			offset = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return count
}

// isBoundary checks the characters around text[start:end]. An edge of the
// phrase that is itself punctuation (as in "c++" or "!") needs no boundary.
func isBoundary(text string, start, end int, phrase string) bool {
	first, _ := utf8.DecodeRuneInString(phrase)
	if isWordRune(first) && start > 0 {
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(before) {
			return false
		}
	}

	last, _ := utf8.DecodeLastRuneInString(phrase)
	if isWordRune(last) && end < len(text) {
		after, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(after) {
			return false
		}
	}

	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
