package retrieval

import (
	"log/slog"
	"sort"
	"time"

	"evidence-engine/internal/domain"
)

// BoostToggles mirrors the enabled boost factors; disabled factors
// contribute 1.0 to the product.
type BoostToggles struct {
	Country       bool
	Year          bool
	Category      bool
	Keyword       bool
	Institutional bool
	TimeDecay     bool
	HalfLifeDays  int
}

// Score computes the hybrid score for every surviving candidate and
// selects the top documents (Stages 5 and 6). Hybrid score is the
// weighted vector + lexical base times the product of enabled boosts.
func Score(sc *StageContext, ranker domain.Ranker, boosts *domain.BoostCalculator, toggles BoostToggles, now time.Time, logger *slog.Logger) {
	if len(sc.Filtered) == 0 {
		sc.Selected = nil
		return
	}

	docs := make([]domain.Document, len(sc.Filtered))
	for i, cand := range sc.Filtered {
		docs[i] = cand.Doc
	}

	// Rank preserves input order, so lexical scores pair positionally.
	// Pairing by document ID would merge duplicates from unvalidated
	// inline pools onto a single slot.
	lexical := ranker.Rank(sc.PostText, docs)

	scored := make([]domain.ScoredDocument, len(sc.Filtered))
	for i, cand := range sc.Filtered {
		base := sc.VectorWeight*cand.Score + sc.TFIDFWeight*lexical[i].Score
		factors := collectBoosts(cand.Doc, sc, boosts, toggles, now)
		scored[i] = domain.ScoredDocument{Doc: cand.Doc, Score: base * factors.Product()}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	limit := sc.TopDocs
	if limit > len(scored) {
		limit = len(scored)
	}
	sc.Selected = make([]domain.Document, limit)
	for i := 0; i < limit; i++ {
		sc.Selected[i] = scored[i].Doc
	}

	logger.Debug("hybrid_rerank_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("scored_count", len(scored)),
		slog.Int("selected_count", len(sc.Selected)))
}

func collectBoosts(doc domain.Document, sc *StageContext, boosts *domain.BoostCalculator, toggles BoostToggles, now time.Time) domain.BoostFactors {
	var factors domain.BoostFactors
	if toggles.Country {
		factors.Country = boosts.CountryBoost(doc, sc.CountrySignal)
	}
	if toggles.Year {
		factors.Year = boosts.YearBoost(doc, sc.ClaimYear)
	}
	if toggles.Category {
		factors.Category = boosts.CategoryBoost(doc)
	}
	if toggles.Keyword {
		factors.Keyword = boosts.KeywordBoost(doc, sc.MustTerms)
	}
	if toggles.Institutional {
		factors.Institutional = boosts.InstitutionalBoost(doc)
	}
	if toggles.TimeDecay {
		factors.TimeDecay = boosts.TimeDecay(doc, toggles.HalfLifeDays, now)
	}
	return factors
}
