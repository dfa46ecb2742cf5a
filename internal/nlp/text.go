package nlp

import (
	"strings"

	"evidence-engine/internal/domain"
)

func normalizeSpaces(text string) string {
	return domain.NormalizeSpaces(text)
}

func lowerNormalized(text string) string {
	return strings.ToLower(normalizeSpaces(text))
}

var accentReplacer = strings.NewReplacer(
	"à", "a", "è", "e", "é", "e", "ì", "i",
	"ò", "o", "ó", "o", "ù", "u",
)

// deaccent strips the Italian accented vowels, the only accents that show
// up in the seed vocabulary and hashtags.
func deaccent(text string) string {
	return accentReplacer.Replace(text)
}
