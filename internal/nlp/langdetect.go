// Package nlp holds the post-analysis collaborators of the retrieval
// engine: language detection, locale/temporal signal extraction, key-term
// extraction and topic expansion. Everything here is deterministic; the
// only network path (MeSH expansion) sits behind an injected interface.
package nlp

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LangUnknown is returned when no language can be determined.
const LangUnknown = "und"

var (
	urlRe     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionRe = regexp.MustCompile(`[@#]\w+`)

	// Common-word patterns per language; three or more hits decide.
	langPatterns = map[string][]*regexp.Regexp{
		"it": {
			regexp.MustCompile(`\b(il|la|lo|gli|le|un|una|del|della|dei|delle|nel|nella|per|con|che|sono|essere|avere)\b`),
			regexp.MustCompile(`\b(questo|questa|questi|queste|quello|quella|quelli|quelle)\b`),
			regexp.MustCompile(`\b(molto|anche|più|già|ancora|sempre|mai|ogni|tutti|tutte)\b`),
		},
		"en": {
			regexp.MustCompile(`\b(the|and|of|to|in|for|with|on|at|by|from|that|this|these|those)\b`),
			regexp.MustCompile(`\b(have|has|had|will|would|could|should|can|may|might)\b`),
			regexp.MustCompile(`\b(very|much|more|most|some|any|all|each|every|many)\b`),
		},
	}
)

// LanguageDetector scores texts against common-word patterns for the
// supported languages. Results are memoized since the same post text is
// analyzed several times per retrieval.
type LanguageDetector struct {
	cache *lru.Cache[string, string]
}

// NewLanguageDetector creates a detector with a bounded memo cache.
func NewLanguageDetector() *LanguageDetector {
	cache, _ := lru.New[string, string](1000)
	return &LanguageDetector{cache: cache}
}

// Detect returns "it", "en" or LangUnknown for the given text.
func (d *LanguageDetector) Detect(text string) string {
	if text == "" {
		return LangUnknown
	}
	if lang, ok := d.cache.Get(text); ok {
		return lang
	}
	lang := detect(text)
	d.cache.Add(text, lang)
	return lang
}

func detect(text string) string {
	cleaned := preprocessForDetection(text)
	if len(cleaned) < 10 {
		return LangUnknown
	}

	lower := lowerNormalized(cleaned)
	bestLang := LangUnknown
	bestScore := 0
	// Iterate in fixed order so equal scores resolve deterministically.
	for _, lang := range []string{"it", "en"} {
		score := 0
		for _, re := range langPatterns[lang] {
			score += len(re.FindAllStringIndex(lower, -1))
		}
		if score > bestScore {
			bestLang = lang
			bestScore = score
		}
	}
	if bestScore >= 3 {
		return bestLang
	}
	return LangUnknown
}

// preprocessForDetection strips the noise that skews detection on social
// posts: links, mentions and hashtags.
func preprocessForDetection(text string) string {
	text = urlRe.ReplaceAllString(text, "")
	text = mentionRe.ReplaceAllString(text, "")
	return normalizeSpaces(text)
}
