package retrieval

import (
	"log/slog"
	"time"

	"evidence-engine/internal/domain"
)

// Filter applies the document gates with the graceful relaxation ladder
// (Stage 4): full gate set, then any-must-term, then raw vector order.
// The pipeline never drops to zero candidates solely because the gates
// were too strict when some candidates exist.
func Filter(sc *StageContext, filter *domain.DocumentFilter, now time.Time, logger *slog.Logger) {
	if len(sc.Candidates) == 0 {
		sc.Filtered = nil
		sc.FallbackApplied = FallbackNone
		return
	}

	// Scores stay paired with their documents through the whole ladder.
	// Inline pools never guarantee unique document IDs, so pairing by ID
	// after the fact would collapse duplicates onto one score slot.
	var kept []domain.ScoredDocument
	for _, cand := range sc.Candidates {
		if filter.PassesTopicGates(cand.Doc, sc.MustTerms, sc.ExpandedKeys, now) {
			kept = append(kept, cand)
		}
	}
	sc.FallbackApplied = FallbackNone

	if len(kept) == 0 {
		kept = mustTermFallback(sc.Candidates, sc.MustTerms, sc.FallbackCap)
		if len(kept) > 0 {
			sc.FallbackApplied = FallbackMustTerm
		}
	}
	if len(kept) == 0 {
		kept = vectorOrderFallback(sc.Candidates, sc.FallbackCap)
		sc.FallbackApplied = FallbackVectorOrder
	}

	sc.Filtered = kept

	if sc.FallbackApplied != FallbackNone {
		logger.Info("filter_fallback_applied",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.String("fallback_level", string(sc.FallbackApplied)),
			slog.Int("kept_count", len(sc.Filtered)))
	} else {
		logger.Debug("filter_completed",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.Int("kept_count", len(sc.Filtered)))
	}
}

// mustTermFallback keeps candidates containing at least one must-term,
// capped, preserving vector ranking order.
func mustTermFallback(candidates []domain.ScoredDocument, mustTerms []string, cap int) []domain.ScoredDocument {
	if len(mustTerms) == 0 {
		return nil
	}
	var kept []domain.ScoredDocument
	for _, cand := range candidates {
		if len(kept) >= cap {
			break
		}
		if domain.ContainsAnyTerm(cand.Doc.CombinedText(), mustTerms) {
			kept = append(kept, cand)
		}
	}
	return kept
}

// vectorOrderFallback keeps the top candidates from the raw vector
// ranking, unfiltered.
func vectorOrderFallback(candidates []domain.ScoredDocument, cap int) []domain.ScoredDocument {
	if len(candidates) > cap {
		candidates = candidates[:cap]
	}
	kept := make([]domain.ScoredDocument, len(candidates))
	copy(kept, candidates)
	return kept
}
