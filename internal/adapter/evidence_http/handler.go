package evidence_http

import (
	"log/slog"
	"net/http"

	"evidence-engine/internal/domain"
	"evidence-engine/internal/infra/logger"
	"evidence-engine/internal/usecase"

	"github.com/labstack/echo/v4"
)

// poolLimit bounds how many stored documents form the candidate pool
// when the request carries no inline documents.
const poolLimit = 200

type Handler struct {
	selectUsecase usecase.SelectContextUsecase
	ingestUsecase usecase.IngestDocumentUsecase
	pool          domain.EvidenceRepository
	logger        *slog.Logger
	ctxLogger     *logger.ContextLogger
}

func NewHandler(
	selectUsecase usecase.SelectContextUsecase,
	ingestUsecase usecase.IngestDocumentUsecase,
	pool domain.EvidenceRepository,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		selectUsecase: selectUsecase,
		ingestUsecase: ingestUsecase,
		pool:          pool,
		logger:        log,
		ctxLogger:     logger.NewContextLogger("evidence-engine"),
	}
}

// RegisterRoutes mounts the engine's routes on the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/context/select", h.SelectContext)
	e.POST("/v1/context/stats", h.ContextStats)
	e.POST("/internal/evidence/ingest", h.IngestDocuments)
}

type documentPayload struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Text         string            `json:"text"`
	URL          string            `json:"url"`
	Lang         string            `json:"lang"`
	PublishedAt  string            `json:"published_at"`
	Source       string            `json:"source"`
	PlatformMeta map[string]string `json:"platform_meta"`
}

func (p documentPayload) toDomain() domain.Document {
	return domain.Document{
		ID:           p.ID,
		Title:        p.Title,
		Text:         p.Text,
		URL:          p.URL,
		Lang:         p.Lang,
		PublishedAt:  p.PublishedAt,
		Source:       p.Source,
		PlatformMeta: p.PlatformMeta,
	}
}

type selectRequest struct {
	Topic            string            `json:"topic"`
	PostText         string            `json:"post_text"`
	Documents        []documentPayload `json:"documents,omitempty"`
	TopDocs          int               `json:"top_docs,omitempty"`
	CandidateK       int               `json:"candidate_k,omitempty"`
	MaxChunks        int               `json:"max_chunks,omitempty"`
	OptimizeForQuery bool              `json:"optimize_for_query,omitempty"`
}

// SelectContext runs the hybrid retrieval pipeline.
// (POST /v1/context/select)
func (h *Handler) SelectContext(ctx echo.Context) error {
	var req selectRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Topic == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing topic"})
	}

	input, err := h.buildInput(ctx, req)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	rctx := logger.WithTopic(ctx.Request().Context(), req.Topic)
	output, err := h.selectUsecase.Execute(rctx, input)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	h.ctxLogger.WithContext(logger.WithRetrievalID(rctx, output.RetrievalID)).Info(
		"context_selected",
		slog.Int("chunk_count", len(output.Chunks)),
		slog.String("fallback", output.Fallback))
	return ctx.JSON(http.StatusOK, output)
}

// ContextStats returns retrieval diagnostics without running selection.
// (POST /v1/context/stats)
func (h *Handler) ContextStats(ctx echo.Context) error {
	var req selectRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Topic == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing topic"})
	}

	input, err := h.buildInput(ctx, req)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	stats, err := h.selectUsecase.Stats(ctx.Request().Context(), input)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, stats)
}

// IngestDocuments adds documents to the evidence pool.
// (POST /internal/evidence/ingest)
func (h *Handler) IngestDocuments(ctx echo.Context) error {
	var payloads []documentPayload
	if err := ctx.Bind(&payloads); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if len(payloads) == 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "empty document batch"})
	}

	docs := make([]domain.Document, len(payloads))
	for i, p := range payloads {
		docs[i] = p.toDomain()
	}

	saved, err := h.ingestUsecase.UpsertBatch(ctx.Request().Context(), docs)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusAccepted, map[string]int{"saved": saved})
}

// buildInput maps the request to usecase input. Inline documents win;
// otherwise the stored pool is queried by topic, falling back to the
// newest stored documents when the topic matches nothing.
func (h *Handler) buildInput(ctx echo.Context, req selectRequest) (usecase.SelectContextInput, error) {
	input := usecase.SelectContextInput{
		Topic:            req.Topic,
		PostText:         req.PostText,
		TopDocs:          req.TopDocs,
		CandidateK:       req.CandidateK,
		MaxChunks:        req.MaxChunks,
		OptimizeForQuery: req.OptimizeForQuery,
	}

	if len(req.Documents) > 0 {
		input.Documents = make([]domain.Document, len(req.Documents))
		for i, p := range req.Documents {
			input.Documents[i] = p.toDomain()
		}
		return input, nil
	}

	if h.pool == nil {
		return input, nil
	}

	stored, err := h.pool.ListByTerms(ctx.Request().Context(), []string{req.Topic}, poolLimit)
	if err != nil {
		return input, err
	}
	if len(stored) == 0 {
		stored, err = h.pool.ListByTerms(ctx.Request().Context(), nil, poolLimit)
		if err != nil {
			return input, err
		}
	}

	input.Documents = make([]domain.Document, len(stored))
	input.Embeddings = make([][]float32, len(stored))
	for i, s := range stored {
		input.Documents[i] = s.Doc
		input.Embeddings[i] = s.Embedding
	}
	return input, nil
}
