package nlp

import (
	"regexp"
	"sort"
	"strings"
)

var termTokenRe = regexp.MustCompile(`[\p{L}]+`)

// Stopword lists cover the two supported post languages. Kept small on
// purpose: the extractor feeds keyword matching, not linguistics.
var stopwords = map[string]map[string]struct{}{
	"it": toSet([]string{
		"il", "lo", "la", "i", "gli", "le", "un", "uno", "una",
		"di", "a", "da", "in", "con", "su", "per", "tra", "fra",
		"del", "dello", "della", "dei", "degli", "delle", "al", "allo",
		"alla", "ai", "agli", "alle", "dal", "dallo", "dalla", "dai",
		"nel", "nello", "nella", "nei", "negli", "nelle", "sul", "sullo",
		"sulla", "sui", "sugli", "sulle", "e", "ed", "o", "ma", "se",
		"che", "chi", "cui", "non", "come", "dove", "quando", "anche",
		"piu", "meno", "molto", "poco", "tutto", "tutti", "questa",
		"questo", "questi", "queste", "quello", "quella", "essere",
		"sono", "sei", "siamo", "siete", "era", "erano", "sara",
		"avere", "ha", "hanno", "aveva", "stato", "stata", "fare",
		"fatto", "cosa", "cose", "loro", "suo", "sua", "suoi", "sue",
		"nostro", "nostra", "vostro", "vostra", "mio", "mia", "tuo", "tua",
	}),
	"en": toSet([]string{
		"the", "a", "an", "and", "or", "but", "if", "then", "else",
		"of", "to", "in", "on", "at", "by", "for", "with", "about",
		"from", "into", "over", "under", "again", "further", "once",
		"is", "are", "was", "were", "be", "been", "being", "am",
		"have", "has", "had", "having", "do", "does", "did", "doing",
		"will", "would", "shall", "should", "can", "could", "may",
		"might", "must", "not", "no", "nor", "only", "own", "same",
		"so", "than", "too", "very", "just", "that", "this", "these",
		"those", "there", "here", "where", "when", "why", "how",
		"all", "any", "both", "each", "few", "more", "most", "other",
		"some", "such", "what", "which", "who", "whom", "it", "its",
		"they", "them", "their", "we", "our", "you", "your", "he",
		"she", "his", "her", "i", "me", "my",
	}),
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// TermExtractor pulls content-bearing terms from post text. It trades the
// accuracy of a full tagger for determinism: alphabetic tokens minus
// stopwords, ranked by frequency then length.
type TermExtractor struct {
	detector *LanguageDetector
}

func NewTermExtractor(detector *LanguageDetector) *TermExtractor {
	if detector == nil {
		detector = NewLanguageDetector()
	}
	return &TermExtractor{detector: detector}
}

const (
	defaultMinTermLength = 3
	defaultMaxTerms      = 50
	maxAnalyzedChars     = 10000
)

// ExtractTerms returns up to maxTerms distinct lowercase terms of at least
// minLength characters, stopwords removed. Order is deterministic:
// descending frequency, then descending length, then lexicographic.
func (e *TermExtractor) ExtractTerms(text, langHint string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) > maxAnalyzedChars {
		text = text[:maxAnalyzedChars]
	}

	lang := normalizeLangCode(langHint)
	if lang == "" {
		lang = e.detector.Detect(text)
	}
	stops, ok := stopwords[lang]
	if !ok {
		stops = stopwords["en"]
	}

	counts := make(map[string]int)
	for _, tok := range termTokenRe.FindAllString(strings.ToLower(text), -1) {
		if len([]rune(tok)) < defaultMinTermLength {
			continue
		}
		if _, stop := stops[tok]; stop {
			continue
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return nil
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	if len(terms) > defaultMaxTerms {
		terms = terms[:defaultMaxTerms]
	}
	return terms
}

func normalizeLangCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	switch code {
	case "italian", "italiano":
		return "it"
	case "english", "inglese":
		return "en"
	}
	if len(code) > 2 {
		return ""
	}
	return code
}
