package nlp

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// medicalSeedTerms maps a medical topic to hand-curated surface forms in
// both supported languages. Keys are matched by substring in either
// direction, so "vaccino covid" hits both "vaccino" and "covid".
var medicalSeedTerms = map[string][]string{
	"vaccino": {
		"vaccino", "vaccini", "#vaccino", "#vaccini", "vaccination", "vaccine",
		"#vaccine", "immunizzazione", "immunization", "vaccinazione", "siero",
	},
	"chemioterapia": {
		"chemioterapia", "chemio", "chemioterapie", "chemotherapy", "#chemotherapy",
		"terapia antitumorale", "oncologia", "citotossico",
	},
	"vitamina c": {
		"vitamina c", "acido ascorbico", "ascorbato", "vitamin c", "#vitaminc",
		"vitamina", "integratore", "antiossidante",
	},
	"tumore": {
		"tumore", "tumori", "cancro", "neoplasia", "cancer", "#cancer",
		"oncologia", "carcinoma", "metastasi", "benigno", "maligno",
	},
	"diabete": {
		"diabete", "diabetico", "diabetici", "diabetes", "#diabetes",
		"glicemia", "insulina", "iperglicemia", "tipo 1", "tipo 2",
	},
	"antibiotico": {
		"antibiotico", "antibiotici", "antibiotic", "antibiotics", "#antibiotics",
		"resistenza", "batterio", "infezione", "antimicrobico",
	},
	"west nile": {
		"west nile", "west nile virus", "wnv", "#westnile",
		"virus del nilo occidentale", "nilo occidentale",
		"febbre del nilo occidentale", "arbovirosi", "culex", "zanzara",
	},
	"malattia west nile": {
		"west nile", "malattia west nile", "west nile virus", "wnv",
		"virus del nilo occidentale", "febbre del nilo occidentale",
		"nilo occidentale", "arbovirosi", "culex",
	},
	"covid": {
		"covid", "covid-19", "coronavirus", "sars-cov-2", "pandemia",
		"lockdown", "quarantena", "tampone", "vaccino covid", "long covid",
	},
	"influenza": {
		"influenza", "flu", "stagionale", "aviaria", "suina", "h1n1",
		"febbre", "sintomi influenzali", "vaccino antinfluenzale",
	},
}

// MeSHSource fetches Medical Subject Headings for a free-text query.
// A nil source disables subject-heading expansion.
type MeSHSource interface {
	MeSHTerms(ctx context.Context, query string, maxResults int) ([]string, error)
}

// SeedExpander expands a medical topic into the term set used for
// candidate gating. It combines the curated seed dictionary, simple
// morphological variants, and optionally subject headings from a
// MeSHSource.
type SeedExpander struct {
	mesh   MeSHSource
	logger *slog.Logger
}

func NewSeedExpander(mesh MeSHSource, logger *slog.Logger) *SeedExpander {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeedExpander{mesh: mesh, logger: logger}
}

const (
	maxPostTermsForVariants = 6
	maxPostTermsForMeSH     = 4
	maxMeSHResultsTopic     = 30
	maxMeSHResultsTerm      = 20
)

// ExpandTopic returns a deterministic, sorted term list. MeSH lookup
// failures degrade to dictionary-only expansion and never fail the call.
func (e *SeedExpander) ExpandTopic(ctx context.Context, topic string, postTerms []string) ([]string, error) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return nil, nil
	}

	expanded := make(map[string]struct{})
	add := func(terms []string) {
		for _, t := range terms {
			expanded[t] = struct{}{}
		}
	}

	add(e.seedTerms(topic))
	add(SimpleVariants(topic))

	if len(postTerms) > maxPostTermsForVariants {
		postTerms = postTerms[:maxPostTermsForVariants]
	}
	for _, term := range postTerms {
		add(SimpleVariants(term))
	}

	if e.mesh != nil {
		e.addMeSHVariants(ctx, topic, postTerms, add)
	}

	out := make([]string, 0, len(expanded))
	for term := range expanded {
		if len(strings.TrimSpace(term)) >= 2 {
			out = append(out, term)
		}
	}
	sort.Strings(out)

	e.logger.Debug("topic expanded",
		slog.String("topic", topic),
		slog.Int("term_count", len(out)))
	return out, nil
}

func (e *SeedExpander) addMeSHVariants(ctx context.Context, topic string, postTerms []string, add func([]string)) {
	queries := []struct {
		query string
		max   int
	}{{topic, maxMeSHResultsTopic}}
	for i, term := range postTerms {
		if i >= maxPostTermsForMeSH {
			break
		}
		if len(term) > 3 {
			queries = append(queries, struct {
				query string
				max   int
			}{term, maxMeSHResultsTerm})
		}
	}

	for _, q := range queries {
		headings, err := e.mesh.MeSHTerms(ctx, q.query, q.max)
		if err != nil {
			e.logger.Warn("mesh expansion failed",
				slog.String("query", q.query),
				slog.String("error", err.Error()))
			continue
		}
		for _, h := range headings {
			add(SimpleVariants(h))
		}
	}
}

// seedTerms matches the topic against the dictionary by substring in
// both directions, over keys and over the terms themselves.
func (e *SeedExpander) seedTerms(topic string) []string {
	if terms, ok := medicalSeedTerms[topic]; ok {
		return terms
	}

	var matched []string
	for key, terms := range medicalSeedTerms {
		if strings.Contains(key, topic) || strings.Contains(topic, key) {
			matched = append(matched, terms...)
			continue
		}
		for _, t := range terms {
			lt := strings.ToLower(t)
			if strings.Contains(lt, topic) || strings.Contains(topic, lt) {
				matched = append(matched, terms...)
				break
			}
		}
	}
	return matched
}

// SimpleVariants generates case, hashtag, deaccented, and naive plural
// variants of a term. Variants shorter than two characters are dropped.
func SimpleVariants(term string) []string {
	t := strings.TrimSpace(term)
	if t == "" {
		return nil
	}

	variants := map[string]struct{}{
		t:                        {},
		strings.ToLower(t):       {},
		capitalize(t):            {},
		titleCase(t):             {},
		"#" + t:                  {},
		"#" + strings.ToLower(t): {},
	}

	if d := deaccent(t); d != t {
		variants[d] = struct{}{}
		variants["#"+d] = struct{}{}
	}

	// Italian o->i and a->e plurals, English y->ies and trailing s.
	if strings.HasSuffix(t, "o") {
		variants[t[:len(t)-1]+"i"] = struct{}{}
	}
	if strings.HasSuffix(t, "a") {
		variants[t[:len(t)-1]+"e"] = struct{}{}
	}
	if strings.HasSuffix(t, "y") && len(t) > 2 {
		variants[t[:len(t)-1]+"ies"] = struct{}{}
	}
	if !strings.HasSuffix(t, "s") {
		variants[t+"s"] = struct{}{}
	}

	out := make([]string, 0, len(variants))
	for v := range variants {
		if len(v) >= 2 {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// AvailableTopics lists the seed dictionary keys in sorted order.
func AvailableTopics() []string {
	topics := make([]string, 0, len(medicalSeedTerms))
	for k := range medicalSeedTerms {
		topics = append(topics, k)
	}
	sort.Strings(topics)
	return topics
}
