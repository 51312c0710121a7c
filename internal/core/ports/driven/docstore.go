package driven

import (
	"context"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite. It is the only shared mutable resource in the engine:
// document creation relies on a storage-enforced uniqueness constraint on
// the source path, and chunk writes are atomic per document.
type DocumentStore interface {
	// CreateDocument stores a new document and returns its assigned ID.
	// Returns domain.ErrDuplicateDocument if the source path exists.
	CreateDocument(ctx context.Context, doc *domain.Document) (int64, error)

	// AddChunks appends chunks for a document atomically: either all
	// chunks are stored or none. The store keeps its lexical index in
	// sync within the same transaction and assigns each chunk's ID in
	// place on success.
	AddChunks(ctx context.Context, docID int64, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id int64) (*domain.Chunk, error)

	// FindByPath returns the ID of the document with the given source
	// path, or ok=false if none exists.
	FindByPath(ctx context.Context, path string) (id int64, ok bool, err error)

	// GetChunks retrieves all chunks for a document in insertion order.
	GetChunks(ctx context.Context, docID int64) ([]domain.Chunk, error)

	// GetChunksForPage returns the chunks of a document whose estimated
	// page range covers the given page.
	GetChunksForPage(ctx context.Context, docID int64, page int) ([]domain.Chunk, error)

	// EmbeddedChunks returns the chunk vectors of all filtered chunks
	// that have a stored embedding.
	EmbeddedChunks(ctx context.Context, filter domain.Filter) ([]domain.ChunkVector, error)

	// DeleteDocument removes a document, its chunks and their index
	// entries.
	DeleteDocument(ctx context.Context, id int64) error

	// Stats reports the stored document and chunk counts.
	Stats(ctx context.Context) (docs, chunks int64, err error)
}
