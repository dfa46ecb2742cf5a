package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"evidence-engine/internal/domain"
)

// ContextConfig holds tunable parameters for context assembly.
type ContextConfig struct {
	MaxChunks     int
	WordsPerChunk int
	ChunkOverlap  int
	ChunkStrategy domain.ChunkStrategy

	// Chunk word-count band; chunks outside it are dropped.
	MinChunkWords int
	MaxChunkWords int

	// EnsureDiversity caps chunks accepted per source.
	EnsureDiversity    bool
	MaxChunksPerSource int

	// PreferRecent raises the recency weight in the composite score
	// from 0.2 to 0.4.
	PreferRecent        bool
	RecentDaysThreshold int

	// LanguageFilter, when non-empty, restricts documents to these
	// language codes.
	LanguageFilter []string

	// MinQualityScore drops chunks scoring below it.
	MinQualityScore float64

	// NearDuplicateThreshold drops chunks whose word-overlap Jaccard
	// against an already kept chunk exceeds it.
	NearDuplicateThreshold float64

	IncludeChunkMetadata bool
}

// DefaultContextConfig returns the production defaults.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		MaxChunks:              6,
		WordsPerChunk:          350,
		ChunkOverlap:           40,
		ChunkStrategy:          domain.StrategySentenceBased,
		MinChunkWords:          50,
		MaxChunkWords:          500,
		EnsureDiversity:        true,
		MaxChunksPerSource:     2,
		PreferRecent:           true,
		RecentDaysThreshold:    30,
		MinQualityScore:        0.3,
		NearDuplicateThreshold: 0.8,
		IncludeChunkMetadata:   true,
	}
}

// Validate checks the context configuration.
func (c ContextConfig) Validate() error {
	if c.MaxChunks <= 0 {
		return fmt.Errorf("maxChunks must be positive, got %d", c.MaxChunks)
	}
	if c.WordsPerChunk <= 0 {
		return fmt.Errorf("wordsPerChunk must be positive, got %d", c.WordsPerChunk)
	}
	if c.MinChunkWords < 0 || c.MaxChunkWords < c.MinChunkWords {
		return fmt.Errorf("chunk word band invalid: [%d, %d]", c.MinChunkWords, c.MaxChunkWords)
	}
	if c.EnsureDiversity && c.MaxChunksPerSource <= 0 {
		return fmt.Errorf("maxChunksPerSource must be positive, got %d", c.MaxChunksPerSource)
	}
	if c.NearDuplicateThreshold <= 0 || c.NearDuplicateThreshold > 1 {
		return fmt.Errorf("nearDuplicateThreshold must be in (0, 1], got %f", c.NearDuplicateThreshold)
	}
	if c.RecentDaysThreshold < 0 {
		return fmt.Errorf("recentDaysThreshold must be non-negative, got %d", c.RecentDaysThreshold)
	}
	return nil
}

// ChunkMeta carries per-chunk diagnostics for citation consumers.
type ChunkMeta struct {
	ChunkID      string  `json:"chunk_id"`
	WordCount    int     `json:"word_count"`
	QualityScore float64 `json:"quality_score"`
	RecencyScore float64 `json:"recency_score"`
	FinalScore   float64 `json:"final_score"`
}

// ChunkSourceMeta carries the originating document's citation metadata.
type ChunkSourceMeta struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	Feed        string `json:"feed"`
	Lang        string `json:"lang"`
}

// ContextChunk is the final externally visible unit: a text fragment
// plus composite relevance score and citation metadata. Downstream
// consumers cite chunks by 1-based position, so ordering is a contract.
type ContextChunk struct {
	Content        string          `json:"content"`
	Meta           ChunkSourceMeta `json:"meta"`
	ChunkMeta      *ChunkMeta      `json:"chunk_meta,omitempty"`
	QueryRelevance float64         `json:"query_relevance,omitempty"`
}

// contextCandidate is the internal pre-format representation.
type contextCandidate struct {
	chunk   domain.TextChunk
	doc     domain.Document
	chunkID string
	quality float64
	recency float64
	final   float64
}

// ContextBuilder turns selected documents into ranked, deduplicated,
// source-diverse context chunks.
type ContextBuilder struct {
	cfg      ContextConfig
	chunker  *domain.TextChunker
	registry *domain.InstitutionalRegistry
	logger   *slog.Logger
}

// NewContextBuilder creates a builder. A nil registry gets the default
// institutional allow-list.
func NewContextBuilder(cfg ContextConfig, registry *domain.InstitutionalRegistry, logger *slog.Logger) *ContextBuilder {
	if registry == nil {
		registry = domain.NewInstitutionalRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	chunker := domain.NewTextChunker(domain.ChunkConfig{
		Strategy:          cfg.ChunkStrategy,
		MaxWords:          cfg.WordsPerChunk,
		OverlapWords:      cfg.ChunkOverlap,
		MinChunkWords:     cfg.MinChunkWords,
		PreserveSentences: true,
	})
	return &ContextBuilder{cfg: cfg, chunker: chunker, registry: registry, logger: logger}
}

// minDocChars is the builder's own length floor; the upstream document
// filter applies the stricter one.
const minDocChars = 100

// BuildContext assembles context chunks from the selected documents.
// Stage order is fixed: document filter, chunk, quality filter,
// diversity cap, composite sort, truncate, format.
func (b *ContextBuilder) BuildContext(docs []domain.Document, now time.Time) []ContextChunk {
	if len(docs) == 0 {
		return nil
	}

	filtered := b.filterDocuments(docs)
	candidates := b.chunkDocuments(filtered, now)
	candidates = b.filterByQuality(candidates)
	if b.cfg.EnsureDiversity {
		candidates = b.ensureDiversity(candidates)
	}
	b.scoreAndSort(candidates)

	if len(candidates) > b.cfg.MaxChunks {
		candidates = candidates[:b.cfg.MaxChunks]
	}

	b.logger.Debug("context_built",
		slog.Int("document_count", len(docs)),
		slog.Int("chunk_count", len(candidates)))

	return b.format(candidates)
}

// OptimizeForQuery builds context and re-ranks it by blending the
// stored composite score with token overlap against the query
// (0.7 stored + 0.3 overlap). Filtering and dedup stages are not rerun.
func (b *ContextBuilder) OptimizeForQuery(docs []domain.Document, query string, now time.Time) []ContextChunk {
	context := b.BuildContext(docs, now)
	if len(context) == 0 || strings.TrimSpace(query) == "" {
		return context
	}

	queryWords := wordSet(query)
	for i := range context {
		context[i].QueryRelevance = overlapRatio(queryWords, wordSet(context[i].Content))
	}

	sort.SliceStable(context, func(i, j int) bool {
		return blendedScore(context[i]) > blendedScore(context[j])
	})
	return context
}

func blendedScore(c ContextChunk) float64 {
	stored := 0.5
	if c.ChunkMeta != nil {
		stored = c.ChunkMeta.FinalScore
	}
	return 0.7*stored + 0.3*c.QueryRelevance
}

func (b *ContextBuilder) filterDocuments(docs []domain.Document) []domain.Document {
	var filtered []domain.Document
	seenURLs := make(map[string]struct{})

	for _, doc := range docs {
		if len(strings.TrimSpace(doc.Text)) < minDocChars {
			continue
		}
		if len(b.cfg.LanguageFilter) > 0 {
			lang := doc.LangCode()
			if !containsString(b.cfg.LanguageFilter, lang) {
				continue
			}
		}
		if doc.URL != "" {
			if _, dup := seenURLs[doc.URL]; dup {
				continue
			}
			seenURLs[doc.URL] = struct{}{}
		}
		filtered = append(filtered, doc)
	}
	return filtered
}

func (b *ContextBuilder) chunkDocuments(docs []domain.Document, now time.Time) []contextCandidate {
	var all []contextCandidate
	for docIdx, doc := range docs {
		text := domain.NormalizeSpaces(doc.Text)
		if text == "" {
			continue
		}
		chunks, fellBack := b.chunker.ChunkWithFallback(text)
		if fellBack {
			b.logger.Warn("chunk_strategy_fallback",
				slog.String("document_id", doc.ID),
				slog.String("strategy", string(b.cfg.ChunkStrategy)))
		}
		recency := b.recencyScore(doc, now)
		for chunkIdx, chunk := range chunks {
			all = append(all, contextCandidate{
				chunk:   chunk,
				doc:     doc,
				chunkID: fmt.Sprintf("doc_%d_chunk_%d", docIdx, chunkIdx),
				quality: b.qualityScore(chunk, doc),
				recency: recency,
			})
		}
	}
	return all
}

// qualityScore starts at 0.5 and adds up to 0.2 for length proximity to
// the target chunk size, up to 0.1 for medical-term density, and a flat
// 0.2 for institutional sources. Capped at 1.0.
func (b *ContextBuilder) qualityScore(chunk domain.TextChunk, doc domain.Document) float64 {
	score := 0.5

	lengthRatio := float64(chunk.WordCount) / float64(b.cfg.WordsPerChunk)
	if lengthRatio > 1.0 {
		lengthRatio = 1.0
	}
	score += 0.2 * lengthRatio

	matches := domain.MedicalTermDensity(chunk.Content, 3)
	score += 0.1 * float64(matches) / 3.0

	if b.registry.IsInstitutional(doc) {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// recencyScore decays linearly inside the recent window, then
// asymptotically. A missing or unparseable timestamp scores 0.5.
func (b *ContextBuilder) recencyScore(doc domain.Document, now time.Time) float64 {
	published, ok := doc.PublishedTime()
	if !ok {
		return 0.5
	}
	days := now.Sub(published).Hours() / 24
	if days < 0 {
		days = 0
	}
	threshold := float64(b.cfg.RecentDaysThreshold)
	if threshold > 0 && days <= threshold {
		return 1.0 - (days/threshold)*0.5
	}
	return 0.5 * (1.0 / (1.0 + (days-threshold)/365))
}

func (b *ContextBuilder) filterByQuality(candidates []contextCandidate) []contextCandidate {
	var kept []contextCandidate
	for _, cand := range candidates {
		wc := cand.chunk.WordCount
		if wc < b.cfg.MinChunkWords || wc > b.cfg.MaxChunkWords {
			continue
		}
		if cand.quality < b.cfg.MinQualityScore {
			continue
		}
		words := wordSet(cand.chunk.Content)
		dup := false
		for _, k := range kept {
			if jaccardWords(words, wordSet(k.chunk.Content)) > b.cfg.NearDuplicateThreshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, cand)
	}
	return kept
}

// ensureDiversity walks candidates in descending quality order, caps
// chunks per source, and stops once twice the final target is gathered.
func (b *ContextBuilder) ensureDiversity(candidates []contextCandidate) []contextCandidate {
	sorted := make([]contextCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].quality > sorted[j].quality
	})

	sourceCounts := make(map[string]int)
	var diverse []contextCandidate
	for _, cand := range sorted {
		source := cand.doc.SourceName()
		if sourceCounts[source] < b.cfg.MaxChunksPerSource {
			diverse = append(diverse, cand)
			sourceCounts[source]++
		}
		if len(diverse) >= b.cfg.MaxChunks*2 {
			break
		}
	}
	return diverse
}

func (b *ContextBuilder) scoreAndSort(candidates []contextCandidate) {
	qualityWeight := 0.6
	recencyWeight := 0.2
	if b.cfg.PreferRecent {
		recencyWeight = 0.4
	}
	for i := range candidates {
		candidates[i].final = qualityWeight*candidates[i].quality + recencyWeight*candidates[i].recency
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].final > candidates[j].final
	})
}

func (b *ContextBuilder) format(candidates []contextCandidate) []ContextChunk {
	context := make([]ContextChunk, 0, len(candidates))
	for _, cand := range candidates {
		chunk := ContextChunk{
			Content: cand.chunk.Content,
			Meta: ChunkSourceMeta{
				Title:       cand.doc.Title,
				URL:         cand.doc.URL,
				Source:      cand.doc.Source,
				PublishedAt: cand.doc.PublishedAt,
				Feed:        cand.doc.PlatformMeta["feed"],
				Lang:        cand.doc.Lang,
			},
		}
		if b.cfg.IncludeChunkMetadata {
			chunk.ChunkMeta = &ChunkMeta{
				ChunkID:      cand.chunkID,
				WordCount:    cand.chunk.WordCount,
				QualityScore: cand.quality,
				RecencyScore: cand.recency,
				FinalScore:   cand.final,
			}
		}
		context = append(context, chunk)
	}
	return context
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func jaccardWords(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func overlapRatio(query, content map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	overlap := 0
	for w := range query {
		if _, ok := content[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(query))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
