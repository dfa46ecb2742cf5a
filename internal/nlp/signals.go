package nlp

import (
	"regexp"
	"strconv"
)

// countryPatterns maps a country code to its surface forms, split by the
// language the post is written in.
var countryPatterns = map[string]map[string][]*regexp.Regexp{
	"italy": {
		"it": {
			regexp.MustCompile(`\b(?:italia|italy|italiano|italiana|italiani|italiane)\b`),
			regexp.MustCompile(`\bregioni?\s+italiane?\b`),
			regexp.MustCompile(`\bstato\s+italiano\b`),
			regexp.MustCompile(`\bnazione\s+italiana\b`),
		},
		"en": {
			regexp.MustCompile(`\b(?:italy|italian|italians)\b`),
			regexp.MustCompile(`\bitalian\s+(?:state|country|nation|regions?)\b`),
		},
	},
	"usa": {
		"it": {regexp.MustCompile(`\b(?:stati\s+uniti|usa|america|americano|americana)\b`)},
		"en": {regexp.MustCompile(`\b(?:united\s+states|usa|america|american|americans)\b`)},
	},
	"france": {
		"it": {regexp.MustCompile(`\b(?:francia|francese|francesi)\b`)},
		"en": {regexp.MustCompile(`\b(?:france|french)\b`)},
	},
	"germany": {
		"it": {regexp.MustCompile(`\b(?:germania|tedesco|tedeschi|tedesca|tedesche)\b`)},
		"en": {regexp.MustCompile(`\b(?:germany|german|germans)\b`)},
	},
	"spain": {
		"it": {regexp.MustCompile(`\b(?:spagna|spagnolo|spagnoli|spagnola|spagnole)\b`)},
		"en": {regexp.MustCompile(`\b(?:spain|spanish)\b`)},
	},
	"uk": {
		"it": {regexp.MustCompile(`\b(?:regno\s+unito|inghilterra|inglese|inglesi|britannia|britannico)\b`)},
		"en": {regexp.MustCompile(`\b(?:united\s+kingdom|uk|england|britain|british)\b`)},
	},
}

// countryOrder fixes iteration order so extraction is deterministic;
// Italy first since it is the primary deployment locale.
var countryOrder = []string{"italy", "usa", "france", "germany", "spain", "uk"}

var yearRe = regexp.MustCompile(`\b(20[0-2]\d|19\d{2})\b`)

// SignalExtractor pulls locale and temporal signals out of post text.
type SignalExtractor struct {
	detector *LanguageDetector
}

// NewSignalExtractor creates an extractor using the given detector for
// language hints.
func NewSignalExtractor(detector *LanguageDetector) *SignalExtractor {
	if detector == nil {
		detector = NewLanguageDetector()
	}
	return &SignalExtractor{detector: detector}
}

// ExtractLocaleYear returns the country signal ("italy", "usa", ...) and
// the claim year mentioned in the text. Empty string / zero mean no signal.
// Italy wins over other countries when both appear; the most recent
// plausible year (1990-2030) wins among year mentions.
func (e *SignalExtractor) ExtractLocaleYear(text string) (string, int) {
	if text == "" {
		return "", 0
	}
	lower := lowerNormalized(text)

	lang := e.detector.Detect(text)
	if lang == LangUnknown {
		lang = "it"
	}

	country := ""
	for _, code := range countryOrder {
		patterns := countryPatterns[code][lang]
		for _, re := range patterns {
			if re.MatchString(lower) {
				country = code
				break
			}
		}
		if country != "" {
			break
		}
	}

	year := 0
	for _, match := range yearRe.FindAllString(lower, -1) {
		y, err := strconv.Atoi(match)
		if err != nil || y < 1990 || y > 2030 {
			continue
		}
		if y > year {
			year = y
		}
	}

	return country, year
}
