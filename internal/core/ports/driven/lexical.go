package driven

import (
	"context"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

// LexicalIndex provides ranked full-text search over chunk text.
// Backed by SQLite FTS5; the document store keeps it in sync with chunk
// inserts and deletes.
type LexicalIndex interface {
	// Search runs a term-match query restricted to filtered documents
	// and returns up to limit hits, best match first.
	Search(ctx context.Context, query string, filter domain.Filter, limit int) ([]LexicalHit, error)
}

// LexicalHit is a full-text match.
type LexicalHit struct {
	// ChunkID is the matched chunk.
	ChunkID int64

	// Score is the raw BM25 score. Lower is better, per BM25
	// convention; fusion uses rank position, not this value.
	Score float64
}
