package usecase

import (
	"context"

	"evidence-engine/internal/usecase/retrieval"
)

// InputStats summarizes the candidate document pool.
type InputStats struct {
	TotalDocuments         int            `json:"total_documents"`
	LanguageDistribution   map[string]int `json:"language_distribution"`
	SourceDistribution     map[string]int `json:"source_distribution"`
	InstitutionalDocuments int            `json:"institutional_documents"`
}

// AnalysisStats summarizes the post-analysis outcome.
type AnalysisStats struct {
	DetectedLanguage string `json:"detected_language"`
	CountrySignal    string `json:"country_signal"`
	YearSignal       int    `json:"year_signal"`
	ExpandedKeyCount int    `json:"expanded_key_count"`
	MustTermCount    int    `json:"must_term_count"`
}

// ConfigStats echoes the effective scoring configuration.
type ConfigStats struct {
	VectorWeight float64 `json:"vector_weight"`
	TFIDFWeight  float64 `json:"tfidf_weight"`
	CandidateK   int     `json:"candidate_k"`
	TopDocs      int     `json:"top_docs"`
}

// RetrievalStats is the diagnostics view over a retrieval request,
// computed without running the scoring or assembly stages.
type RetrievalStats struct {
	Input    InputStats    `json:"input_statistics"`
	Analysis AnalysisStats `json:"analysis_results"`
	Config   ConfigStats   `json:"config"`
}

// Stats analyzes the post and summarizes the document pool.
func (u *selectContextUsecase) Stats(ctx context.Context, input SelectContextInput) (*RetrievalStats, error) {
	sc := &retrieval.StageContext{
		Topic:    input.Topic,
		PostText: input.PostText,
	}
	retrieval.Analyze(ctx, sc, u.analyze, u.logger)

	langDist := make(map[string]int)
	sourceDist := make(map[string]int)
	institutional := 0
	for _, doc := range input.Documents {
		lang := doc.Lang
		if lang == "" {
			lang = "unknown"
		}
		langDist[lang]++

		source := doc.Source
		if source == "" {
			source = "unknown"
		}
		sourceDist[source]++

		if u.registry.IsInstitutional(doc) {
			institutional++
		}
	}

	return &RetrievalStats{
		Input: InputStats{
			TotalDocuments:         len(input.Documents),
			LanguageDistribution:   langDist,
			SourceDistribution:     sourceDist,
			InstitutionalDocuments: institutional,
		},
		Analysis: AnalysisStats{
			DetectedLanguage: sc.PostLang,
			CountrySignal:    sc.CountrySignal,
			YearSignal:       sc.ClaimYear,
			ExpandedKeyCount: len(sc.ExpandedKeys),
			MustTermCount:    len(sc.MustTerms),
		},
		Config: ConfigStats{
			VectorWeight: u.cfg.VectorWeight,
			TFIDFWeight:  u.cfg.TFIDFWeight,
			CandidateK:   u.cfg.CandidateK,
			TopDocs:      u.cfg.TopDocs,
		},
	}, nil
}
