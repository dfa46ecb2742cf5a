package retrieval

import (
	"evidence-engine/internal/domain"
)

// StageContext carries data between pipeline stages.
type StageContext struct {
	// Input
	RetrievalID string
	Topic       string
	PostText    string

	// Analyze outputs
	PostLang      string
	PostTerms     []string
	CountrySignal string
	ClaimYear     int
	ExpandedKeys  []string
	MustTerms     []string

	// Index outputs
	Store          *domain.VectorStore
	QueryEmbedding []float32

	// Candidate stage outputs
	Candidates []domain.ScoredDocument

	// Filter stage outputs
	Filtered        []domain.ScoredDocument
	FallbackApplied FallbackLevel

	// Score stage outputs
	Selected []domain.Document

	// Config values (set once at init)
	CandidateK   int
	TopDocs      int
	FallbackCap  int
	VectorWeight float64
	TFIDFWeight  float64
}

// FallbackLevel records which rung of the filter-relaxation ladder
// produced the surviving candidate set.
type FallbackLevel string

const (
	FallbackNone        FallbackLevel = "none"
	FallbackMustTerm    FallbackLevel = "must_term"
	FallbackVectorOrder FallbackLevel = "vector_order"
)
