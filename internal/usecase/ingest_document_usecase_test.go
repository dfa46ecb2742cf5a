package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evidence-engine/internal/domain"
	"evidence-engine/internal/usecase"
)

type memoryRepo struct {
	saved   []domain.StoredDocument
	saveErr error
}

func (r *memoryRepo) Save(_ context.Context, doc domain.StoredDocument) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, doc)
	return nil
}

func (r *memoryRepo) ListByTerms(_ context.Context, _ []string, _ int) ([]domain.StoredDocument, error) {
	return r.saved, nil
}

type fixedEncoder struct {
	err   error
	calls int
}

func (e *fixedEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 0, 0}
	}
	return out, nil
}

func (e *fixedEncoder) Version() string { return "fixed-stub" }

type fixedDetector struct{ lang string }

func (d fixedDetector) Detect(string) string { return d.lang }

func TestIngestDocumentUpsert(t *testing.T) {
	t.Run("stores the document with its embedding", func(t *testing.T) {
		repo := &memoryRepo{}
		u := usecase.NewIngestDocumentUsecase(repo, &fixedEncoder{}, fixedDetector{lang: "it"}, discardLogger())

		err := u.Upsert(context.Background(), domain.Document{
			ID:    "doc-1",
			Title: "Copertura vaccinale",
			Text:  "La copertura vaccinale cresce in tutte le regioni.",
			Lang:  "it",
		})

		require.NoError(t, err)
		require.Len(t, repo.saved, 1)
		assert.Equal(t, "doc-1", repo.saved[0].Doc.ID)
		assert.NotEmpty(t, repo.saved[0].Embedding)
	})

	t.Run("rejects a document without text or title", func(t *testing.T) {
		repo := &memoryRepo{}
		u := usecase.NewIngestDocumentUsecase(repo, &fixedEncoder{}, nil, discardLogger())

		err := u.Upsert(context.Background(), domain.Document{ID: "empty", Text: "   "})

		require.Error(t, err)
		assert.Empty(t, repo.saved)
	})

	t.Run("derives a stable ID from the content when missing", func(t *testing.T) {
		repo := &memoryRepo{}
		u := usecase.NewIngestDocumentUsecase(repo, &fixedEncoder{}, nil, discardLogger())

		doc := domain.Document{Title: "Titolo", Text: "Testo del documento.", Lang: "it"}
		require.NoError(t, u.Upsert(context.Background(), doc))
		require.NoError(t, u.Upsert(context.Background(), doc))

		require.Len(t, repo.saved, 2)
		assert.NotEmpty(t, repo.saved[0].Doc.ID)
		assert.Equal(t, repo.saved[0].Doc.ID, repo.saved[1].Doc.ID)
	})

	t.Run("fills in the language when the document has none", func(t *testing.T) {
		repo := &memoryRepo{}
		u := usecase.NewIngestDocumentUsecase(repo, &fixedEncoder{}, fixedDetector{lang: "it"}, discardLogger())

		err := u.Upsert(context.Background(), domain.Document{
			ID:   "doc-2",
			Text: "La sorveglianza epidemiologica continua anche quest'anno.",
		})

		require.NoError(t, err)
		require.Len(t, repo.saved, 1)
		assert.Equal(t, "it", repo.saved[0].Doc.Lang)
	})

	t.Run("keeps the declared language over detection", func(t *testing.T) {
		repo := &memoryRepo{}
		u := usecase.NewIngestDocumentUsecase(repo, &fixedEncoder{}, fixedDetector{lang: "it"}, discardLogger())

		err := u.Upsert(context.Background(), domain.Document{
			ID:   "doc-3",
			Text: "Vaccination coverage keeps rising across regions.",
			Lang: "en",
		})

		require.NoError(t, err)
		assert.Equal(t, "en", repo.saved[0].Doc.Lang)
	})

	t.Run("propagates encoder failures", func(t *testing.T) {
		repo := &memoryRepo{}
		u := usecase.NewIngestDocumentUsecase(repo, &fixedEncoder{err: errors.New("model offline")}, nil, discardLogger())

		err := u.Upsert(context.Background(), domain.Document{ID: "doc-4", Text: "testo"})

		require.Error(t, err)
		assert.ErrorContains(t, err, "model offline")
		assert.Empty(t, repo.saved)
	})
}

func TestIngestDocumentUpsertBatch(t *testing.T) {
	t.Run("skips failing documents and counts the rest", func(t *testing.T) {
		repo := &memoryRepo{}
		u := usecase.NewIngestDocumentUsecase(repo, &fixedEncoder{}, nil, discardLogger())

		saved, err := u.UpsertBatch(context.Background(), []domain.Document{
			{ID: "ok-1", Text: "primo documento valido"},
			{ID: "bad", Text: "   "},
			{ID: "ok-2", Text: "secondo documento valido"},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, saved)
		require.Len(t, repo.saved, 2)
	})

	t.Run("fails when every document is rejected", func(t *testing.T) {
		repo := &memoryRepo{saveErr: errors.New("disk full")}
		u := usecase.NewIngestDocumentUsecase(repo, &fixedEncoder{}, nil, discardLogger())

		saved, err := u.UpsertBatch(context.Background(), []domain.Document{
			{ID: "a", Text: "testo"},
			{ID: "b", Text: "altro testo"},
		})

		require.Error(t, err)
		assert.Zero(t, saved)
	})

	t.Run("accepts an empty batch", func(t *testing.T) {
		u := usecase.NewIngestDocumentUsecase(&memoryRepo{}, &fixedEncoder{}, nil, discardLogger())

		saved, err := u.UpsertBatch(context.Background(), nil)

		require.NoError(t, err)
		assert.Zero(t, saved)
	})
}
