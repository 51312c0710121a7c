package driving

import (
	"context"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

// SearchService drives hybrid retrieval over the indexed manuals.
type SearchService interface {
	// Search runs the query through the lexical and vector paths,
	// fuses the rankings and returns at most query.K citations.
	// Returns domain.ErrInvalidQuery for malformed queries.
	Search(ctx context.Context, query domain.Query) ([]domain.Citation, error)
}

// DocumentService exposes read and administrative access to stored
// documents.
type DocumentService interface {
	// Get retrieves a document by ID.
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// PageChunks returns the chunks whose estimated page range covers
	// the given page of a document.
	PageChunks(ctx context.Context, docID int64, page int) ([]domain.Chunk, error)

	// Delete removes a document, cascading to its chunks and their
	// index entries.
	Delete(ctx context.Context, id int64) error

	// Stats reports the stored document and chunk counts.
	Stats(ctx context.Context) (docs, chunks int64, err error)
}
