package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// RankingConfig holds lexical ranking parameters.
type RankingConfig struct {
	// NgramMin/NgramMax bound the word-shingle sizes for TF-IDF.
	NgramMin int
	NgramMax int
	// MinDF drops terms appearing in fewer documents than this.
	MinDF int
	// MaxDF drops terms appearing in more than this fraction of documents.
	MaxDF float64
}

// DefaultRankingConfig returns the engine defaults (1- and 2-word shingles).
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{NgramMin: 1, NgramMax: 2, MinDF: 1, MaxDF: 0.95}
}

// Ranker scores documents for relevance against a query string.
// Scores are in [0, 1]; an empty document list yields an empty result.
type Ranker interface {
	Rank(query string, docs []Document) []ScoredDocument
}

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}#]+`)

// Tokenize lowercases and splits on alphanumeric-plus-hashtag runs,
// Unicode letters included.
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// JaccardRanker scores by token-overlap between query and document:
// |intersection| / |union|. It is total: disjoint sets score 0.0 and it
// never fails.
type JaccardRanker struct{}

// NewJaccardRanker creates a JaccardRanker.
func NewJaccardRanker() *JaccardRanker {
	return &JaccardRanker{}
}

// Rank computes Jaccard similarity per document, preserving input order.
func (r *JaccardRanker) Rank(query string, docs []Document) []ScoredDocument {
	if len(docs) == 0 {
		return nil
	}
	queryTokens := TokenSet(query)

	ranked := make([]ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		docTokens := TokenSet(doc.CombinedText())
		ranked = append(ranked, ScoredDocument{Doc: doc, Score: jaccard(queryTokens, docTokens)})
	}
	return ranked
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TFIDFRanker builds a TF-IDF vector space over {query} ∪ documents using
// word shingles and scores each document by cosine similarity to the query
// vector. Any internal failure (degenerate vocabulary) falls back
// transparently to the Jaccard ranker on the same inputs.
type TFIDFRanker struct {
	cfg      RankingConfig
	fallback *JaccardRanker
}

// NewTFIDFRanker creates a TFIDFRanker with the given config.
func NewTFIDFRanker(cfg RankingConfig) *TFIDFRanker {
	if cfg.NgramMin <= 0 {
		cfg.NgramMin = 1
	}
	if cfg.NgramMax < cfg.NgramMin {
		cfg.NgramMax = cfg.NgramMin
	}
	if cfg.MinDF <= 0 {
		cfg.MinDF = 1
	}
	if cfg.MaxDF <= 0 || cfg.MaxDF > 1 {
		cfg.MaxDF = 0.95
	}
	return &TFIDFRanker{cfg: cfg, fallback: NewJaccardRanker()}
}

// Rank scores documents against the query, preserving input order.
func (r *TFIDFRanker) Rank(query string, docs []Document) []ScoredDocument {
	if len(docs) == 0 {
		return nil
	}
	ranked, err := r.rank(query, docs)
	if err != nil {
		return r.fallback.Rank(query, docs)
	}
	return ranked
}

func (r *TFIDFRanker) rank(query string, docs []Document) ([]ScoredDocument, error) {
	texts := make([]string, 0, len(docs)+1)
	texts = append(texts, query)
	for _, doc := range docs {
		texts = append(texts, doc.CombinedText())
	}

	termCounts := make([]map[string]float64, len(texts))
	docFreq := make(map[string]int)
	for i, text := range texts {
		counts := make(map[string]float64)
		for _, term := range shingles(Tokenize(text), r.cfg.NgramMin, r.cfg.NgramMax) {
			counts[term]++
		}
		termCounts[i] = counts
		for term := range counts {
			docFreq[term]++
		}
	}

	// Prune the vocabulary by document frequency.
	n := len(texts)
	maxDocs := int(r.cfg.MaxDF * float64(n))
	if maxDocs < 1 {
		maxDocs = 1
	}
	idf := make(map[string]float64)
	for term, df := range docFreq {
		if df < r.cfg.MinDF || df > maxDocs {
			continue
		}
		// Smoothed inverse document frequency keeps every kept term positive.
		idf[term] = math.Log(float64(1+n)/float64(1+df)) + 1
	}
	if len(idf) == 0 {
		return nil, fmt.Errorf("degenerate vocabulary: no terms within df bounds")
	}

	vectors := make([]map[string]float64, len(texts))
	for i, counts := range termCounts {
		vec := make(map[string]float64)
		var norm float64
		for term, tf := range counts {
			w, ok := idf[term]
			if !ok {
				continue
			}
			v := tf * w
			vec[term] = v
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		vectors[i] = vec
	}

	queryVec := vectors[0]
	ranked := make([]ScoredDocument, 0, len(docs))
	for i, doc := range docs {
		ranked = append(ranked, ScoredDocument{Doc: doc, Score: sparseDot(queryVec, vectors[i+1])})
	}
	return ranked, nil
}

// shingles expands tokens into n-grams joined by single spaces.
func shingles(tokens []string, nMin, nMax int) []string {
	var out []string
	for n := nMin; n <= nMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func sparseDot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, va := range a {
		if vb, ok := b[term]; ok {
			dot += va * vb
		}
	}
	return dot
}
