package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"evidence-engine/internal/domain"

	"golang.org/x/sync/errgroup"
)

// OllamaEmbedder calls an Ollama-compatible embedding endpoint. Large
// inputs are split into batches encoded concurrently; output order
// matches input order.
type OllamaEmbedder struct {
	BaseURL   string
	Model     string
	Client    *http.Client
	BatchSize int

	// MaxConcurrency bounds parallel batch requests.
	MaxConcurrency int
}

func NewOllamaEmbedder(baseURL, model string, timeoutSeconds int) *OllamaEmbedder {
	timeout := 30 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &OllamaEmbedder{
		BaseURL:        baseURL,
		Model:          model,
		Client:         &http.Client{Timeout: timeout},
		BatchSize:      32,
		MaxConcurrency: 4,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *OllamaEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	slog.Info("ollama_embed_started",
		slog.Int("text_count", len(texts)),
		slog.String("model", e.Model),
		slog.String("url", e.BaseURL),
	)
	start := time.Now()

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	if e.MaxConcurrency > 0 {
		g.SetLimit(e.MaxConcurrency)
	}

	for offset := 0; offset < len(texts); offset += batchSize {
		offset := offset
		end := offset + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[offset:end]

		g.Go(func() error {
			embeddings, err := e.encodeBatch(gctx, batch)
			if err != nil {
				return err
			}
			if len(embeddings) != len(batch) {
				return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(embeddings))
			}
			copy(out[offset:], embeddings)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("ollama_embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, err
	}

	slog.Info("ollama_embed_completed",
		slog.Int("embedding_count", len(out)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (e *OllamaEmbedder) encodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embedRequest{
		Model: e.Model,
		Input: texts,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status: %d", resp.StatusCode)
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return respBody.Embeddings, nil
}

func (e *OllamaEmbedder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*OllamaEmbedder)(nil)
