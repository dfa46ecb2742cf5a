package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"evidence-engine/internal/domain"
	"evidence-engine/internal/usecase/retrieval"
)

// IngestDocumentUsecase adds documents to the evidence pool, computing
// embeddings up front so retrieval never re-encodes stored documents.
type IngestDocumentUsecase interface {
	// Upsert stores a document with its embedding. It is idempotent:
	// re-ingesting unchanged content is a no-op at the storage layer.
	Upsert(ctx context.Context, doc domain.Document) error
	// UpsertBatch stores a batch, skipping documents that fail
	// individually rather than aborting the whole batch.
	UpsertBatch(ctx context.Context, docs []domain.Document) (int, error)
}

type ingestDocumentUsecase struct {
	repo     domain.EvidenceRepository
	encoder  domain.VectorEncoder
	detector retrieval.LanguageDetector
	logger   *slog.Logger
}

func NewIngestDocumentUsecase(
	repo domain.EvidenceRepository,
	encoder domain.VectorEncoder,
	detector retrieval.LanguageDetector,
	logger *slog.Logger,
) IngestDocumentUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestDocumentUsecase{
		repo:     repo,
		encoder:  encoder,
		detector: detector,
		logger:   logger,
	}
}

func (u *ingestDocumentUsecase) Upsert(ctx context.Context, doc domain.Document) error {
	if strings.TrimSpace(doc.Text) == "" && strings.TrimSpace(doc.Title) == "" {
		return fmt.Errorf("document %q has no usable text", doc.ID)
	}
	if doc.ID == "" {
		doc.ID = sourceHash(doc.Title, doc.Text)
	}
	if doc.Lang == "" && u.detector != nil {
		doc.Lang = u.detector.Detect(doc.CombinedText())
	}

	embeddings, err := u.encoder.Encode(ctx, []string{doc.CombinedText()})
	if err != nil {
		return fmt.Errorf("failed to encode document %q: %w", doc.ID, err)
	}
	if len(embeddings) != 1 {
		return fmt.Errorf("expected 1 embedding for document %q, got %d", doc.ID, len(embeddings))
	}

	stored := domain.StoredDocument{Doc: doc, Embedding: embeddings[0]}
	if err := u.repo.Save(ctx, stored); err != nil {
		return fmt.Errorf("failed to save document %q: %w", doc.ID, err)
	}

	u.logger.Debug("document_ingested",
		slog.String("document_id", doc.ID),
		slog.String("source", doc.Source),
		slog.String("lang", doc.Lang))
	return nil
}

func (u *ingestDocumentUsecase) UpsertBatch(ctx context.Context, docs []domain.Document) (int, error) {
	saved := 0
	for _, doc := range docs {
		if err := u.Upsert(ctx, doc); err != nil {
			u.logger.Warn("document_ingest_skipped",
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()))
			continue
		}
		saved++
	}
	if saved == 0 && len(docs) > 0 {
		return 0, fmt.Errorf("all %d documents failed to ingest", len(docs))
	}
	return saved, nil
}

func sourceHash(title, body string) string {
	sum := sha256.Sum256([]byte(title + "\x00" + body))
	return hex.EncodeToString(sum[:])
}
