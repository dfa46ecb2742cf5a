package repository

import (
	"context"
	"fmt"

	"evidence-engine/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type evidenceRepository struct {
	pool *pgxpool.Pool
}

// NewEvidenceRepository creates the pgvector-backed evidence pool store.
func NewEvidenceRepository(pool *pgxpool.Pool) domain.EvidenceRepository {
	return &evidenceRepository{pool: pool}
}

func (r *evidenceRepository) Save(ctx context.Context, stored domain.StoredDocument) error {
	query := `
		INSERT INTO evidence_documents
			(id, title, body, url, lang, published_at, source, platform_meta, processed, embedding)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			url = EXCLUDED.url,
			lang = EXCLUDED.lang,
			published_at = EXCLUDED.published_at,
			source = EXCLUDED.source,
			platform_meta = EXCLUDED.platform_meta,
			processed = EXCLUDED.processed,
			embedding = EXCLUDED.embedding
	`
	doc := stored.Doc
	_, err := r.pool.Exec(ctx, query,
		doc.ID,
		doc.Title,
		doc.Text,
		doc.URL,
		doc.Lang,
		doc.PublishedAt,
		doc.Source,
		doc.PlatformMeta,
		doc.Processed,
		pgvector.NewVector(stored.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert evidence document: %w", err)
	}
	return nil
}

func (r *evidenceRepository) ListByTerms(ctx context.Context, terms []string, limit int) ([]domain.StoredDocument, error) {
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT id, title, body, url, lang, COALESCE(published_at, ''), source, platform_meta, processed, embedding
		FROM evidence_documents
	`
	args := []interface{}{}
	if len(terms) > 0 {
		patterns := make([]string, len(terms))
		for i, term := range terms {
			patterns[i] = "%" + term + "%"
		}
		query += ` WHERE (title || ' ' || body) ILIKE ANY($1)`
		args = append(args, patterns)
		query += fmt.Sprintf(` ORDER BY published_at DESC NULLS LAST LIMIT $%d`, len(args)+1)
	} else {
		query += ` ORDER BY published_at DESC NULLS LAST LIMIT $1`
	}
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.StoredDocument
	for rows.Next() {
		var (
			doc       domain.Document
			embedding pgvector.Vector
		)
		if err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Text,
			&doc.URL,
			&doc.Lang,
			&doc.PublishedAt,
			&doc.Source,
			&doc.PlatformMeta,
			&doc.Processed,
			&embedding,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evidence document: %w", err)
		}
		docs = append(docs, domain.StoredDocument{Doc: doc, Embedding: embedding.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return docs, nil
}
