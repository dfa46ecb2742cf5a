package retrieval

import (
	"context"
	"log/slog"

	"evidence-engine/internal/domain"
)

// LanguageDetector identifies the language of a post text.
type LanguageDetector interface {
	Detect(text string) string
}

// TermExtractor pulls key terms from a post text.
type TermExtractor interface {
	ExtractTerms(text, langHint string) []string
}

// SignalExtractor pulls locale and year signals from a post text.
type SignalExtractor interface {
	ExtractLocaleYear(text string) (string, int)
}

// AnalyzeDeps bundles the post-analysis collaborators.
type AnalyzeDeps struct {
	Detector LanguageDetector
	Terms    TermExtractor
	Signals  SignalExtractor
	Expander domain.TopicExpander
	Filter   *domain.DocumentFilter
}

// Analyze extracts language, key terms, locale/year signals, expanded
// topic terms, and must-terms from the post (Stage 1). Topic-expansion
// failures degrade to an empty expanded set.
func Analyze(ctx context.Context, sc *StageContext, deps AnalyzeDeps, logger *slog.Logger) {
	sc.PostLang = deps.Detector.Detect(sc.PostText)
	sc.PostTerms = deps.Terms.ExtractTerms(sc.PostText, sc.PostLang)
	sc.CountrySignal, sc.ClaimYear = deps.Signals.ExtractLocaleYear(sc.PostText)

	expanded, err := deps.Expander.ExpandTopic(ctx, sc.Topic, sc.PostTerms)
	if err != nil {
		logger.Warn("topic_expansion_failed",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.String("topic", sc.Topic),
			slog.String("error", err.Error()))
		expanded = nil
	}
	sc.ExpandedKeys = expanded

	sc.MustTerms = deps.Filter.MustTermsForTopic(sc.Topic, sc.PostText)

	logger.Debug("post_analysis_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.String("post_lang", sc.PostLang),
		slog.String("country_signal", sc.CountrySignal),
		slog.Int("claim_year", sc.ClaimYear),
		slog.Int("post_term_count", len(sc.PostTerms)),
		slog.Int("expanded_key_count", len(sc.ExpandedKeys)),
		slog.Int("must_term_count", len(sc.MustTerms)))
}
