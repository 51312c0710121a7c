package driven

import (
	"context"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

// VectorIndex provides semantic similarity search over chunk embeddings.
// The default implementation is an exhaustive cosine scan over the
// document store; an approximate-nearest-neighbour index (Qdrant) can be
// substituted without changing the fusion contract.
type VectorIndex interface {
	// Add inserts a vector record for a chunk. Implementations that
	// read embeddings straight from the document store may treat this
	// as a no-op.
	Add(ctx context.Context, rec VectorRecord) error

	// Delete removes a chunk's vector from the index.
	Delete(ctx context.Context, chunkID int64) error

	// Search finds the k most similar filtered chunks to the query
	// embedding, highest similarity first.
	Search(ctx context.Context, embedding []float32, filter domain.Filter, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorRecord is a chunk embedding plus the document metadata the index
// needs for filter push-down.
type VectorRecord struct {
	ChunkID   int64
	DocID     int64
	Vendor    string
	Family    string
	Model     string
	Embedding []float32
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID int64

	// Similarity is the cosine similarity to the query embedding.
	Similarity float64
}
