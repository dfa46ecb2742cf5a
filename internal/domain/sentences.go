package domain

import (
	"regexp"
	"strings"
	"unicode"
)

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeSpaces collapses runs of whitespace into single spaces and trims
// the result. Normalized length is authoritative for all length gates.
func NormalizeSpaces(text string) string {
	if text == "" {
		return text
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// SplitSentences splits text on sentence-ending punctuation followed by
// whitespace and an uppercase letter. Italian text uses the full Unicode
// uppercase class so accented sentence openers (È, À) are recognized;
// other languages require a plain ASCII capital.
func SplitSentences(text string, lang string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	isUpper := func(r rune) bool { return r >= 'A' && r <= 'Z' }
	if strings.HasPrefix(strings.ToLower(lang), "it") {
		isUpper = unicode.IsUpper
	}

	runes := []rune(text)
	var sentences []string
	start := 0
	i := 0
	for i < len(runes) {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			// Consume the punctuation run.
			for i < len(runes) && (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') {
				i++
			}
			// Boundary only when whitespace precedes an uppercase opener.
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j > i && j < len(runes) && isUpper(runes[j]) {
				sentence := strings.TrimSpace(string(runes[start:i]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				start = j
				i = j
				continue
			}
			continue
		}
		i++
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
