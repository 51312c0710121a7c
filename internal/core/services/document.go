package services

import (
	"context"
	"fmt"

	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
	"github.com/egregore-labs/manualdex/internal/core/ports/driving"
	"github.com/egregore-labs/manualdex/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes stored documents to the driving adapters.
type DocumentService struct {
	store       driven.DocumentStore
	vectorIndex driven.VectorIndex
}

// NewDocumentService creates a document service. The vector index is
// optional and only used to clean up after deletions.
func NewDocumentService(store driven.DocumentStore, vectorIndex driven.VectorIndex) *DocumentService {
	return &DocumentService{store: store, vectorIndex: vectorIndex}
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id int64) (*domain.Document, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return s.store.GetDocument(ctx, id)
}

// PageChunks returns the chunks covering one page of a document.
func (s *DocumentService) PageChunks(ctx context.Context, docID int64, page int) ([]domain.Chunk, error) {
	if docID <= 0 || page < 1 {
		return nil, domain.ErrInvalidInput
	}
	return s.store.GetChunksForPage(ctx, docID, page)
}

// Delete removes a document with its chunks and index entries.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidInput
	}

	// External vector indexes track chunks by ID; collect them before
	// the cascade removes the rows.
	if s.vectorIndex != nil {
		chunks, err := s.store.GetChunks(ctx, id)
		if err != nil {
			return fmt.Errorf("get chunks: %w", err)
		}
		for _, chunk := range chunks {
			if err := s.vectorIndex.Delete(ctx, chunk.ID); err != nil {
				logger.Warn("Vector index delete for chunk %d failed: %v", chunk.ID, err)
			}
		}
	}

	return s.store.DeleteDocument(ctx, id)
}

// Stats reports the stored document and chunk counts.
func (s *DocumentService) Stats(ctx context.Context) (docs, chunks int64, err error) {
	return s.store.Stats(ctx)
}
