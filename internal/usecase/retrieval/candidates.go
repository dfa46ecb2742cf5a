package retrieval

import (
	"log/slog"
)

// Candidates runs the nearest-neighbor search over the per-request
// vector index (Stage 3). An empty or missing index yields zero
// candidates without error.
func Candidates(sc *StageContext, logger *slog.Logger) {
	if sc.Store == nil || sc.Store.Size() == 0 {
		logger.Warn("vector_search_skipped_empty_index",
			slog.String("retrieval_id", sc.RetrievalID))
		sc.Candidates = nil
		return
	}

	results, err := sc.Store.Search(sc.QueryEmbedding, sc.CandidateK)
	if err != nil {
		logger.Error("vector_search_failed",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.String("error", err.Error()))
		sc.Candidates = nil
		return
	}

	sc.Candidates = results
	logger.Debug("vector_search_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("candidate_count", len(results)))
}
