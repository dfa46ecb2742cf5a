package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"evidence-engine/internal/adapter/embedder"
	"evidence-engine/internal/adapter/entrez"
	"evidence-engine/internal/adapter/evidence_http"
	"evidence-engine/internal/adapter/repository"
	"evidence-engine/internal/domain"
	"evidence-engine/internal/infra/config"
	"evidence-engine/internal/infra/httpclient"
	"evidence-engine/internal/nlp"
	"evidence-engine/internal/usecase"
	"evidence-engine/internal/usecase/retrieval"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	EvidenceRepo domain.EvidenceRepository

	SelectUsecase usecase.SelectContextUsecase
	IngestUsecase usecase.IngestDocumentUsecase

	Handler *evidence_http.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	evidenceRepo := repository.NewEvidenceRepository(pool)

	encoder := NewEncoder(cfg)
	detector := nlp.NewLanguageDetector()

	selectUsecase, err := NewSelectUsecase(cfg, encoder, detector, log)
	if err != nil {
		return nil, err
	}

	ingestUsecase := usecase.NewIngestDocumentUsecase(evidenceRepo, encoder, detector, log)

	handler := evidence_http.NewHandler(selectUsecase, ingestUsecase, evidenceRepo, log)

	return &ApplicationComponents{
		EvidenceRepo:  evidenceRepo,
		SelectUsecase: selectUsecase,
		IngestUsecase: ingestUsecase,
		Handler:       handler,
	}, nil
}

// NewEncoder builds the Ollama embedding client with a pooled HTTP transport.
func NewEncoder(cfg *config.Config) *embedder.OllamaEmbedder {
	encoder := embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, 30)
	encoder.Client = httpclient.NewPooledClient(30 * time.Second)
	return encoder
}

// NewSelectUsecase wires the context-selection pipeline without requiring a
// database pool. The CLI uses this directly with inline document pools.
func NewSelectUsecase(cfg *config.Config, encoder domain.VectorEncoder, detector *nlp.LanguageDetector, log *slog.Logger) (usecase.SelectContextUsecase, error) {
	// MeSH expansion is enabled only when an NCBI email is configured.
	termExtractor := nlp.NewTermExtractor(detector)
	signalExtractor := nlp.NewSignalExtractor(detector)

	var meshSource nlp.MeSHSource
	if cfg.NCBIEmail != "" {
		client, err := entrez.NewClient(cfg.NCBIEmail, cfg.NCBIAPIKey, log)
		if err != nil {
			return nil, err
		}
		meshSource = client
		log.Info("mesh_expansion_enabled", slog.Bool("api_key_set", cfg.NCBIAPIKey != ""))
	} else {
		log.Warn("mesh_expansion_disabled_no_email")
	}
	expander := nlp.NewSeedExpander(meshSource, log)

	// Domain components.
	docFilter := domain.NewDocumentFilter(domain.DefaultFilterConfig())
	ranker := domain.NewTFIDFRanker(domain.DefaultRankingConfig())
	registry := domain.NewInstitutionalRegistry()
	boosts := domain.NewBoostCalculator(registry)

	retrievalCfg := usecase.DefaultHybridRetrievalConfig()
	if cfg.CandidateK > 0 {
		retrievalCfg.CandidateK = cfg.CandidateK
	}
	if cfg.TopDocs > 0 {
		retrievalCfg.TopDocs = cfg.TopDocs
	}
	if cfg.MaxChunks > 0 {
		retrievalCfg.MaxChunks = cfg.MaxChunks
	}

	return usecase.NewSelectContextUsecase(
		retrievalCfg,
		encoder,
		retrieval.AnalyzeDeps{
			Detector: detector,
			Terms:    termExtractor,
			Signals:  signalExtractor,
			Expander: expander,
			Filter:   docFilter,
		},
		docFilter,
		ranker,
		boosts,
		registry,
		log,
	)
}
