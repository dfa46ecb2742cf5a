package domain

import (
	"fmt"
	"math"
	"sort"
)

// DefaultEmbeddingDim matches the multilingual MiniLM embedding model used
// by the embedding collaborator.
const DefaultEmbeddingDim = 384

// ErrDimensionMismatch reports an embedding whose dimension differs from the
// index's declared dimension. Unlike degraded-dependency conditions this is a
// caller bug and fails the whole call.
type ErrDimensionMismatch struct {
	Want int
	Got  int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: index dimension %d, got %d", e.Want, e.Got)
}

// VectorStore is an in-memory nearest-neighbor index over document
// embeddings. It is built fresh for every retrieval call, owns no external
// resource and needs no teardown. Not safe for concurrent mutation; each
// call constructs its own store.
type VectorStore struct {
	dim     int
	vectors [][]float32
	docs    []Document
}

// NewVectorStore creates an empty store with a fixed dimension.
func NewVectorStore(dim int) *VectorStore {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &VectorStore{dim: dim}
}

// Build populates the store from parallel slices of embeddings and
// documents. Building with zero documents yields a valid empty index.
func (s *VectorStore) Build(embeddings [][]float32, docs []Document) error {
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding/document count mismatch: %d embeddings, %d documents", len(embeddings), len(docs))
	}
	s.vectors = s.vectors[:0]
	s.docs = s.docs[:0]
	return s.Add(embeddings, docs)
}

// Add extends the store incrementally. Results returned by earlier Search
// calls stay valid; they reflect the index state at the time of the call.
func (s *VectorStore) Add(embeddings [][]float32, docs []Document) error {
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding/document count mismatch: %d embeddings, %d documents", len(embeddings), len(docs))
	}
	for _, emb := range embeddings {
		if len(emb) != s.dim {
			return &ErrDimensionMismatch{Want: s.dim, Got: len(emb)}
		}
	}
	s.vectors = append(s.vectors, embeddings...)
	s.docs = append(s.docs, docs...)
	return nil
}

// Size returns the number of indexed documents.
func (s *VectorStore) Size() int {
	return len(s.docs)
}

// Dim returns the declared embedding dimension.
func (s *VectorStore) Dim() int {
	return s.dim
}

// Documents returns the indexed documents in insertion order.
func (s *VectorStore) Documents() []Document {
	return s.docs
}

// Search returns up to topK documents ordered by descending cosine
// similarity to the query vector. Ties keep insertion order. An empty store
// always returns an empty result.
func (s *VectorStore) Search(query []float32, topK int) ([]ScoredDocument, error) {
	if len(query) != s.dim {
		return nil, &ErrDimensionMismatch{Want: s.dim, Got: len(query)}
	}
	if topK <= 0 || len(s.docs) == 0 {
		return nil, nil
	}

	scored := make([]ScoredDocument, len(s.docs))
	for i, vec := range s.vectors {
		scored[i] = ScoredDocument{Doc: s.docs[i], Score: CosineSimilarity(query, vec)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// CosineSimilarity computes the cosine of the angle between two equal-length
// vectors. A zero vector yields 0.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
