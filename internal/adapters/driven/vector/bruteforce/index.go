// Package bruteforce implements vector search by scanning every stored
// embedding. Exact cosine scoring over a few thousand chunks is fast
// enough that the single-machine setup needs nothing cleverer.
package bruteforce

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

// vectorSource supplies the stored chunk embeddings to scan.
type vectorSource interface {
	EmbeddedChunks(ctx context.Context, filter domain.Filter) ([]domain.ChunkVector, error)
}

// Index scores a query embedding against every chunk embedding held by
// the document store. The store is the single source of truth, so Add
// and Delete have nothing to maintain.
type Index struct {
	source vectorSource
}

// NewIndex creates a brute-force index over the store's embeddings.
func NewIndex(source vectorSource) *Index {
	return &Index{source: source}
}

// Add is a no-op: the embedding is already persisted on the chunk row.
func (idx *Index) Add(_ context.Context, _ driven.VectorRecord) error {
	return nil
}

// Delete is a no-op: deleting the chunk row removes its embedding.
func (idx *Index) Delete(_ context.Context, _ int64) error {
	return nil
}

// Search returns the k chunks most similar to the query embedding,
// best first.
func (idx *Index) Search(
	ctx context.Context, embedding []float32, filter domain.Filter, k int,
) ([]driven.VectorHit, error) {
	if len(embedding) == 0 || k <= 0 {
		return nil, nil
	}

	candidates, err := idx.source.EmbeddedChunks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(candidates))
	for _, candidate := range candidates {
		hits = append(hits, driven.VectorHit{
			ChunkID:    candidate.ChunkID,
			Similarity: CosineSimilarity(embedding, candidate.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close is a no-op.
func (idx *Index) Close() error {
	return nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths and zero-magnitude vectors score 0 rather than
// erroring, so one malformed embedding cannot fail a whole search.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float64(dot) / (math.Sqrt(float64(normA)) * math.Sqrt(float64(normB)))
}
