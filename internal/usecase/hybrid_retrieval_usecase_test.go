package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"evidence-engine/internal/domain"
	"evidence-engine/internal/nlp"
	"evidence-engine/internal/usecase"
	"evidence-engine/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEncoder produces deterministic three-dimensional embeddings
// from keyword occurrences, so vector similarity is fully predictable.
type keywordEncoder struct {
	calls int
	fail  bool
}

func (e *keywordEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("embedding service unavailable")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		emb := []float32{0, 0, 1}
		if strings.Contains(lower, "vaccin") {
			emb = []float32{1, 0, 0}
		} else if strings.Contains(lower, "calcio") {
			emb = []float32{0, 1, 0}
		}
		out[i] = emb
	}
	return out, nil
}

func (e *keywordEncoder) Version() string { return "keyword-stub" }

func newTestUsecase(t *testing.T, encoder domain.VectorEncoder) usecase.SelectContextUsecase {
	t.Helper()

	detector := nlp.NewLanguageDetector()
	uc, err := usecase.NewSelectContextUsecase(
		usecase.DefaultHybridRetrievalConfig(),
		encoder,
		retrieval.AnalyzeDeps{
			Detector: detector,
			Terms:    nlp.NewTermExtractor(detector),
			Signals:  nlp.NewSignalExtractor(detector),
			Expander: nlp.NewSeedExpander(nil, nil),
			Filter:   domain.NewDocumentFilter(domain.DefaultFilterConfig()),
		},
		domain.NewDocumentFilter(domain.DefaultFilterConfig()),
		domain.NewTFIDFRanker(domain.DefaultRankingConfig()),
		domain.NewBoostCalculator(domain.NewInstitutionalRegistry()),
		domain.NewInstitutionalRegistry(),
		discardLogger(),
	)
	require.NoError(t, err)
	return uc
}

func recentISO() string {
	return time.Now().AddDate(0, 0, -15).Format(time.RFC3339)
}

func vaccineDoc(id, source string) domain.Document {
	return domain.Document{
		ID:    id,
		Title: "Campagna vaccinale aggiornata",
		Text: strings.Repeat(
			"Il vaccino riduce i ricoveri in tutta Italia secondo i dati ufficiali. ", 10),
		URL:         "https://example.org/" + id,
		Lang:        "it",
		PublishedAt: recentISO(),
		Source:      source,
	}
}

func soccerDoc(id string) domain.Document {
	return domain.Document{
		ID:    id,
		Title: "Risultati di calcio",
		Text: strings.Repeat(
			"La squadra ha vinto la partita di campionato davanti ai tifosi entusiasti. ", 10),
		URL:         "https://example.org/" + id,
		Lang:        "it",
		PublishedAt: recentISO(),
		Source:      "sport news",
	}
}

func TestSelectContext_Execute(t *testing.T) {
	input := usecase.SelectContextInput{
		Topic:    "vaccino",
		PostText: "Il ministero ha detto che i vaccini in Italia nel 2024 sono sicuri",
		Documents: []domain.Document{
			soccerDoc("soccer"),
			vaccineDoc("who", "WHO Regional Office"),
			{ID: "empty", Title: "Senza corpo", Lang: "it", PublishedAt: recentISO()},
		},
	}

	t.Run("selects on-topic evidence and skips the rest", func(t *testing.T) {
		uc := newTestUsecase(t, &keywordEncoder{})

		out, err := uc.Execute(context.Background(), input)
		require.NoError(t, err)
		require.NotEmpty(t, out.Chunks)
		assert.NotEmpty(t, out.RetrievalID)
		assert.Equal(t, string(retrieval.FallbackNone), out.Fallback)

		for _, chunk := range out.Chunks {
			assert.Equal(t, "WHO Regional Office", chunk.Meta.Source)
			assert.Contains(t, strings.ToLower(chunk.Content), "vaccino")
		}
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		uc := newTestUsecase(t, &keywordEncoder{})

		first, err := uc.Execute(context.Background(), input)
		require.NoError(t, err)
		second, err := uc.Execute(context.Background(), input)
		require.NoError(t, err)

		require.Equal(t, len(first.Chunks), len(second.Chunks))
		for i := range first.Chunks {
			assert.Equal(t, first.Chunks[i].Content, second.Chunks[i].Content)
		}
	})

	t.Run("empty pool yields empty result without error", func(t *testing.T) {
		uc := newTestUsecase(t, &keywordEncoder{})

		out, err := uc.Execute(context.Background(), usecase.SelectContextInput{
			Topic:    "vaccino",
			PostText: "testo qualsiasi",
		})
		require.NoError(t, err)
		assert.Empty(t, out.Chunks)
		assert.NotEmpty(t, out.RetrievalID)
	})

	t.Run("encoder failure degrades to empty result", func(t *testing.T) {
		uc := newTestUsecase(t, &keywordEncoder{fail: true})

		out, err := uc.Execute(context.Background(), input)
		require.NoError(t, err)
		assert.Empty(t, out.Chunks)
	})

	t.Run("provided embeddings skip pool encoding", func(t *testing.T) {
		enc := &keywordEncoder{}
		uc := newTestUsecase(t, enc)

		withEmb := input
		withEmb.Documents = []domain.Document{vaccineDoc("who", "WHO Regional Office")}
		withEmb.Embeddings = [][]float32{{1, 0, 0}}

		out, err := uc.Execute(context.Background(), withEmb)
		require.NoError(t, err)
		assert.NotEmpty(t, out.Chunks)
		// Only the query was encoded.
		assert.Equal(t, 1, enc.calls)
	})

	t.Run("mismatched provided embeddings fail the call", func(t *testing.T) {
		uc := newTestUsecase(t, &keywordEncoder{})

		bad := input
		bad.Embeddings = [][]float32{{1, 0, 0}}

		_, err := uc.Execute(context.Background(), bad)
		assert.Error(t, err)
	})

	t.Run("gate failures fall back to vector order", func(t *testing.T) {
		uc := newTestUsecase(t, &keywordEncoder{})

		out, err := uc.Execute(context.Background(), usecase.SelectContextInput{
			Topic:    "astrologia",
			PostText: "cosa dice il mio oroscopo",
			Documents: []domain.Document{
				{ID: "a", Title: "Oroscopo", Text: "previsioni brevi", Lang: "it", PublishedAt: recentISO()},
				{ID: "b", Title: "Stelle", Text: "altre previsioni brevi", Lang: "it", PublishedAt: recentISO()},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, string(retrieval.FallbackVectorOrder), out.Fallback)
		// The surviving documents are too short to produce usable chunks.
		assert.Empty(t, out.Chunks)
	})
}

func TestSelectContext_Stats(t *testing.T) {
	uc := newTestUsecase(t, &keywordEncoder{})

	stats, err := uc.Stats(context.Background(), usecase.SelectContextInput{
		Topic:    "vaccino",
		PostText: "Il ministero ha detto che i vaccini in Italia nel 2024 sono sicuri e monitorati",
		Documents: []domain.Document{
			vaccineDoc("who", "WHO Regional Office"),
			soccerDoc("soccer"),
			{ID: "untagged", Title: "Senza lingua", Text: "testo"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Input.TotalDocuments)
	assert.Equal(t, 2, stats.Input.LanguageDistribution["it"])
	assert.Equal(t, 1, stats.Input.LanguageDistribution["unknown"])
	assert.Equal(t, 1, stats.Input.SourceDistribution["WHO Regional Office"])
	assert.Equal(t, 1, stats.Input.InstitutionalDocuments)

	assert.Equal(t, "it", stats.Analysis.DetectedLanguage)
	assert.Equal(t, "italy", stats.Analysis.CountrySignal)
	assert.Equal(t, 2024, stats.Analysis.YearSignal)
	assert.Greater(t, stats.Analysis.ExpandedKeyCount, 0)
	assert.Greater(t, stats.Analysis.MustTermCount, 0)

	assert.InDelta(t, 0.6, stats.Config.VectorWeight, 1e-9)
	assert.InDelta(t, 0.4, stats.Config.TFIDFWeight, 1e-9)
	assert.Equal(t, 60, stats.Config.CandidateK)
	assert.Equal(t, 5, stats.Config.TopDocs)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
