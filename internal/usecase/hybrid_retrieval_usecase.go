package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"evidence-engine/internal/domain"
	"evidence-engine/internal/usecase/retrieval"

	"github.com/google/uuid"
)

// SelectContextInput defines the input for SelectContextHybrid.
type SelectContextInput struct {
	Topic     string
	PostText  string
	Documents []domain.Document

	// Embeddings, when provided, must be parallel to Documents; when
	// nil the encoder collaborator computes them.
	Embeddings [][]float32

	// OptimizeForQuery re-ranks the final chunks by token overlap with
	// the post text.
	OptimizeForQuery bool

	// Per-call overrides; zero values keep the configured defaults.
	TopDocs    int
	CandidateK int
	MaxChunks  int
}

// SelectContextOutput defines the output for SelectContextHybrid.
type SelectContextOutput struct {
	RetrievalID string         `json:"retrieval_id"`
	Chunks      []ContextChunk `json:"chunks"`
	Fallback    string         `json:"fallback"`
}

// SelectContextUsecase is the engine's single public entry point plus a
// diagnostics companion.
type SelectContextUsecase interface {
	Execute(ctx context.Context, input SelectContextInput) (*SelectContextOutput, error)
	Stats(ctx context.Context, input SelectContextInput) (*RetrievalStats, error)
}

type selectContextUsecase struct {
	cfg      HybridRetrievalConfig
	encoder  domain.VectorEncoder
	analyze  retrieval.AnalyzeDeps
	filter   *domain.DocumentFilter
	ranker   domain.Ranker
	boosts   *domain.BoostCalculator
	registry *domain.InstitutionalRegistry
	logger   *slog.Logger
	now      func() time.Time
}

// NewSelectContextUsecase creates the hybrid retrieval orchestrator.
func NewSelectContextUsecase(
	cfg HybridRetrievalConfig,
	encoder domain.VectorEncoder,
	analyze retrieval.AnalyzeDeps,
	filter *domain.DocumentFilter,
	ranker domain.Ranker,
	boosts *domain.BoostCalculator,
	registry *domain.InstitutionalRegistry,
	logger *slog.Logger,
) (SelectContextUsecase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval config invalid: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = domain.NewInstitutionalRegistry()
	}
	return &selectContextUsecase{
		cfg:      cfg,
		encoder:  encoder,
		analyze:  analyze,
		filter:   filter,
		ranker:   ranker,
		boosts:   boosts,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Execute runs the full pipeline: analyze, index, vector search, filter
// with relaxation, hybrid score, select, assemble. An empty document
// pool yields an empty result, never an error.
func (u *selectContextUsecase) Execute(ctx context.Context, input SelectContextInput) (*SelectContextOutput, error) {
	retrievalID := uuid.NewString()
	postText := domain.NormalizeSpaces(input.PostText)

	if len(input.Documents) == 0 {
		u.logger.Warn("hybrid_retrieval_empty_pool",
			slog.String("retrieval_id", retrievalID),
			slog.String("topic", input.Topic))
		return &SelectContextOutput{
			RetrievalID: retrievalID,
			Chunks:      []ContextChunk{},
			Fallback:    string(retrieval.FallbackNone),
		}, nil
	}

	topDocs := input.TopDocs
	if topDocs <= 0 {
		topDocs = u.cfg.TopDocs
	}
	candidateK := input.CandidateK
	if candidateK <= 0 {
		candidateK = u.cfg.CandidateK
	}
	maxChunks := input.MaxChunks
	if maxChunks <= 0 {
		maxChunks = u.cfg.MaxChunks
	}

	u.logger.Info("hybrid_retrieval_started",
		slog.String("retrieval_id", retrievalID),
		slog.String("topic", input.Topic),
		slog.Int("document_count", len(input.Documents)))

	sc := &retrieval.StageContext{
		RetrievalID:  retrievalID,
		Topic:        input.Topic,
		PostText:     postText,
		CandidateK:   candidateK,
		TopDocs:      topDocs,
		FallbackCap:  u.cfg.FallbackCap(),
		VectorWeight: u.cfg.VectorWeight,
		TFIDFWeight:  u.cfg.TFIDFWeight,
	}

	now := u.now()

	// Stage 1: post analysis.
	retrieval.Analyze(ctx, sc, u.analyze, u.logger)

	// Stage 2: per-request index. Embedding failure degrades to an
	// empty index, never fails the call.
	if err := u.buildIndex(ctx, sc, input); err != nil {
		return nil, err
	}

	// Stages 3 and 4: vector search, filter with relaxation ladder.
	retrieval.Candidates(sc, u.logger)
	retrieval.Filter(sc, u.filter, now, u.logger)

	// Stages 5 and 6: hybrid score and select.
	retrieval.Score(sc, u.ranker, u.boosts, u.boostToggles(), now, u.logger)

	// Stage 7: context assembly.
	builderCfg := DefaultContextConfig()
	builderCfg.MaxChunks = maxChunks
	builderCfg.WordsPerChunk = u.cfg.WordsPerChunk
	builder := NewContextBuilder(builderCfg, u.registry, u.logger)

	var chunks []ContextChunk
	if input.OptimizeForQuery {
		chunks = builder.OptimizeForQuery(sc.Selected, postText, now)
	} else {
		chunks = builder.BuildContext(sc.Selected, now)
	}
	if chunks == nil {
		chunks = []ContextChunk{}
	}

	u.logger.Info("hybrid_retrieval_completed",
		slog.String("retrieval_id", retrievalID),
		slog.Int("chunk_count", len(chunks)),
		slog.String("fallback_level", string(sc.FallbackApplied)))

	return &SelectContextOutput{
		RetrievalID: retrievalID,
		Chunks:      chunks,
		Fallback:    string(sc.FallbackApplied),
	}, nil
}

// buildIndex encodes the query and the candidate pool and constructs
// the per-request vector store. Encoder failures substitute an empty
// index (degrade, not fail); a dimension mismatch among supplied
// embeddings is a caller bug and fails the call.
func (u *selectContextUsecase) buildIndex(ctx context.Context, sc *retrieval.StageContext, input SelectContextInput) error {
	embeddings := input.Embeddings
	if embeddings == nil {
		texts := make([]string, len(input.Documents))
		for i, doc := range input.Documents {
			texts[i] = doc.CombinedText()
		}
		encoded, err := u.encoder.Encode(ctx, texts)
		if err != nil {
			u.logger.Warn("embedding_generation_failed",
				slog.String("retrieval_id", sc.RetrievalID),
				slog.String("error", err.Error()))
			sc.Store = domain.NewVectorStore(domain.DefaultEmbeddingDim)
			return nil
		}
		embeddings = encoded
	}

	dim := domain.DefaultEmbeddingDim
	if len(embeddings) > 0 {
		dim = len(embeddings[0])
	}
	store := domain.NewVectorStore(dim)
	if err := store.Build(embeddings, input.Documents); err != nil {
		return fmt.Errorf("failed to build vector index: %w", err)
	}
	sc.Store = store

	queryEmb, err := u.encoder.Encode(ctx, []string{sc.PostText})
	if err != nil || len(queryEmb) != 1 {
		u.logger.Warn("query_embedding_failed",
			slog.String("retrieval_id", sc.RetrievalID))
		sc.Store = domain.NewVectorStore(dim)
		return nil
	}
	sc.QueryEmbedding = queryEmb[0]
	return nil
}

func (u *selectContextUsecase) boostToggles() retrieval.BoostToggles {
	return retrieval.BoostToggles{
		Country:       u.cfg.Boosts.EnableCountryBoost,
		Year:          u.cfg.Boosts.EnableYearBoost,
		Category:      u.cfg.Boosts.EnableCategoryBoost,
		Keyword:       u.cfg.Boosts.EnableKeywordBoost,
		Institutional: u.cfg.Boosts.EnableInstitutionalBoost,
		TimeDecay:     u.cfg.Boosts.EnableTimeDecay,
		HalfLifeDays:  u.cfg.Boosts.TimeDecayHalfLifeDays,
	}
}
