package usecase

import (
	"fmt"
)

// BoostConfig toggles the individual multiplicative boost factors.
// Disabled factors contribute 1.0 to the product.
type BoostConfig struct {
	EnableCountryBoost       bool
	EnableYearBoost          bool
	EnableCategoryBoost      bool
	EnableKeywordBoost       bool
	EnableInstitutionalBoost bool
	EnableTimeDecay          bool

	// TimeDecayHalfLifeDays is the age at which the decay factor
	// reaches 0.5.
	TimeDecayHalfLifeDays int
}

// DefaultBoostConfig enables every factor with a 540-day half-life.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		EnableCountryBoost:       true,
		EnableYearBoost:          true,
		EnableCategoryBoost:      true,
		EnableKeywordBoost:       true,
		EnableInstitutionalBoost: true,
		EnableTimeDecay:          true,
		TimeDecayHalfLifeDays:    540,
	}
}

// Validate checks the boost configuration.
func (c BoostConfig) Validate() error {
	if c.EnableTimeDecay && c.TimeDecayHalfLifeDays <= 0 {
		return fmt.Errorf("time decay half-life must be positive, got %d", c.TimeDecayHalfLifeDays)
	}
	return nil
}

// HybridRetrievalConfig holds tunable parameters for the full
// vector + lexical retrieval pipeline.
type HybridRetrievalConfig struct {
	// CandidateK is the number of nearest documents fetched from the
	// vector index before filtering.
	CandidateK int

	// VectorWeight and TFIDFWeight combine the similarity scores into
	// the hybrid base score. They need not sum to 1.
	VectorWeight float64
	TFIDFWeight  float64

	// TopDocs is the number of documents handed to context assembly
	// after hybrid reranking.
	TopDocs int

	// MaxChunks and WordsPerChunk are forwarded to the context builder.
	MaxChunks     int
	WordsPerChunk int

	// Boosts holds the multiplicative factor toggles.
	Boosts BoostConfig
}

// DefaultHybridRetrievalConfig returns the production defaults.
func DefaultHybridRetrievalConfig() HybridRetrievalConfig {
	return HybridRetrievalConfig{
		CandidateK:    60,
		VectorWeight:  0.6,
		TFIDFWeight:   0.4,
		TopDocs:       5,
		MaxChunks:     6,
		WordsPerChunk: 350,
		Boosts:        DefaultBoostConfig(),
	}
}

// FallbackCap bounds the relaxed-filter result size:
// max(3 x TopDocs, 10).
func (c HybridRetrievalConfig) FallbackCap() int {
	cap := c.TopDocs * 3
	if cap < 10 {
		cap = 10
	}
	return cap
}

// Validate checks the configuration values.
func (c HybridRetrievalConfig) Validate() error {
	if c.CandidateK <= 0 {
		return fmt.Errorf("candidateK must be positive, got %d", c.CandidateK)
	}
	if c.VectorWeight < 0 {
		return fmt.Errorf("vectorWeight must be non-negative, got %f", c.VectorWeight)
	}
	if c.TFIDFWeight < 0 {
		return fmt.Errorf("tfidfWeight must be non-negative, got %f", c.TFIDFWeight)
	}
	if c.VectorWeight == 0 && c.TFIDFWeight == 0 {
		return fmt.Errorf("at least one of vectorWeight and tfidfWeight must be positive")
	}
	if c.TopDocs <= 0 {
		return fmt.Errorf("topDocs must be positive, got %d", c.TopDocs)
	}
	if c.MaxChunks <= 0 {
		return fmt.Errorf("maxChunks must be positive, got %d", c.MaxChunks)
	}
	if c.WordsPerChunk <= 0 {
		return fmt.Errorf("wordsPerChunk must be positive, got %d", c.WordsPerChunk)
	}
	if err := c.Boosts.Validate(); err != nil {
		return fmt.Errorf("boost config invalid: %w", err)
	}
	return nil
}
