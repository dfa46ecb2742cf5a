package domain

import "context"

// VectorEncoder is the embedding-generation collaborator. Implementations
// call an external model service; failures degrade to an empty index rather
// than aborting retrieval.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

// TopicExpander provides related terms for a topic string. Implementations
// may hit external knowledge bases (MeSH); the engine treats the result as
// an opaque string set and tolerates failure.
type TopicExpander interface {
	ExpandTopic(ctx context.Context, topic string, terms []string) ([]string, error)
}

// StoredDocument pairs a persisted document with its stored embedding.
type StoredDocument struct {
	Doc       Document
	Embedding []float32
}

// EvidenceRepository is the upstream evidence pool: raw documents collected
// by feed and social collectors, persisted with their embeddings. The
// engine's per-request vector index is always rebuilt from the returned
// batch; nothing in this store survives into the index across calls.
type EvidenceRepository interface {
	Save(ctx context.Context, doc StoredDocument) error
	// ListByTerms returns up to limit documents containing at least one of
	// the given terms (all documents when terms is empty), newest first.
	ListByTerms(ctx context.Context, terms []string, limit int) ([]StoredDocument, error)
}
