package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FilterConfig holds the document gate parameters.
type FilterConfig struct {
	// LangWhitelist accepts documents whose 2-letter code is listed;
	// untagged documents pass by default.
	LangWhitelist []string
	// SinceDays rejects documents older than this; missing timestamps pass.
	SinceDays int
	// MinChars is the minimum normalized title+body length.
	MinChars int
}

// DefaultFilterConfig returns the engine defaults.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		LangWhitelist: []string{"it", "en"},
		SinceDays:     730,
		MinChars:      300,
	}
}

// Validate checks the gate parameters.
func (c FilterConfig) Validate() error {
	if c.SinceDays < 0 {
		return fmt.Errorf("sinceDays must be non-negative, got %d", c.SinceDays)
	}
	if c.MinChars < 0 {
		return fmt.Errorf("minChars must be non-negative, got %d", c.MinChars)
	}
	return nil
}

// topicStems maps topic substrings to the stems a document must contain to
// stay in consideration for that topic. Stems match both Italian and
// English surface forms ("vaccin" hits vaccino/vaccine/vaccination).
var topicStems = map[string][]string{
	"vaccino":     {"vaccin", "immuniz"},
	"covid":       {"covid", "coronavirus", "sars"},
	"influenza":   {"influenza", "flu"},
	"diabete":     {"diabet"},
	"tumore":      {"tumor", "cancer", "oncolog"},
	"antibiotico": {"antibiotic", "antimicrob"},
}

var italianPostIndicators = []string{"italia", "italy", "italiano", "regioni italiane"}

// DocumentFilter applies the candidate gates: language, recency, minimum
// length, and required-term presence. It is pure; the reference time is
// passed in by the caller.
type DocumentFilter struct {
	cfg FilterConfig
}

// NewDocumentFilter creates a filter; zero-valued config fields get defaults.
func NewDocumentFilter(cfg FilterConfig) *DocumentFilter {
	def := DefaultFilterConfig()
	if len(cfg.LangWhitelist) == 0 {
		cfg.LangWhitelist = def.LangWhitelist
	}
	if cfg.SinceDays <= 0 {
		cfg.SinceDays = def.SinceDays
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = def.MinChars
	}
	return &DocumentFilter{cfg: cfg}
}

// MustTermsForTopic derives obligatory terms from the topic string and the
// post content: country terms when the post carries Italian-locale
// indicators, plus topic stems keyed by substring match against the topic.
// The result is sorted for deterministic downstream scoring.
func (f *DocumentFilter) MustTermsForTopic(topic, postText string) []string {
	topicLower := strings.ToLower(topic)
	postLower := strings.ToLower(postText)

	termSet := make(map[string]struct{})
	for _, indicator := range italianPostIndicators {
		if strings.Contains(postLower, indicator) {
			termSet["italia"] = struct{}{}
			termSet["italy"] = struct{}{}
			break
		}
	}
	for key, stems := range topicStems {
		if strings.Contains(topicLower, key) {
			for _, stem := range stems {
				termSet[stem] = struct{}{}
			}
		}
	}

	terms := make([]string, 0, len(termSet))
	for term := range termSet {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// FilterByTopic applies the four gates ANDed together and returns the
// surviving documents in input order. Relaxation on an empty result is the
// orchestrator's job, not the filter's.
func (f *DocumentFilter) FilterByTopic(docs []Document, mustTerms, expandedKeys []string, now time.Time) []Document {
	if len(docs) == 0 {
		return nil
	}
	var filtered []Document
	for _, doc := range docs {
		if f.PassesTopicGates(doc, mustTerms, expandedKeys, now) {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}

// PassesTopicGates reports whether a single document clears every gate.
// Callers that track per-document state alongside the pool use this
// instead of FilterByTopic so their pairing survives filtering.
func (f *DocumentFilter) PassesTopicGates(doc Document, mustTerms, expandedKeys []string, now time.Time) bool {
	if !f.passesLanguage(doc) {
		return false
	}
	if !f.passesRecency(doc, now.AddDate(0, 0, -f.cfg.SinceDays)) {
		return false
	}
	if !f.passesLength(doc) {
		return false
	}
	if len(mustTerms) > 0 && !ContainsAnyTerm(doc.CombinedText(), mustTerms) {
		return false
	}
	if len(expandedKeys) > 0 && !ContainsAnyTerm(doc.CombinedText(), expandedKeys) {
		return false
	}
	return true
}

func (f *DocumentFilter) passesLanguage(doc Document) bool {
	code := doc.LangCode()
	if code == "" {
		return true
	}
	for _, lang := range f.cfg.LangWhitelist {
		if code == strings.ToLower(lang) {
			return true
		}
	}
	return false
}

func (f *DocumentFilter) passesRecency(doc Document, cutoff time.Time) bool {
	published, ok := doc.PublishedTime()
	if !ok {
		return true
	}
	return !published.Before(cutoff)
}

func (f *DocumentFilter) passesLength(doc Document) bool {
	combined := NormalizeSpaces(doc.CombinedText())
	// An empty title and body make a document unusable regardless of the
	// configured minimum.
	if combined == "" {
		return false
	}
	return len(combined) >= f.cfg.MinChars
}

// ContainsAnyTerm reports whether text contains at least one of the terms,
// case-insensitively.
func ContainsAnyTerm(text string, terms []string) bool {
	if text == "" || len(terms) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
