// Package memory provides an in-memory document store. It backs tests
// and throwaway sessions where nothing needs to survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocStore)(nil)

// DocStore keeps documents and chunks in maps guarded by a mutex.
type DocStore struct {
	mu          sync.RWMutex
	docs        map[int64]*domain.Document
	chunks      map[int64]*domain.Chunk
	nextDocID   int64
	nextChunkID int64
}

// NewDocStore creates an empty in-memory document store.
func NewDocStore() *DocStore {
	return &DocStore{
		docs:        make(map[int64]*domain.Document),
		chunks:      make(map[int64]*domain.Chunk),
		nextDocID:   1,
		nextChunkID: 1,
	}
}

func (m *DocStore) CreateDocument(_ context.Context, doc *domain.Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.docs {
		if existing.SourcePath == doc.SourcePath {
			return 0, fmt.Errorf("%w: %s", domain.ErrDuplicateDocument, doc.SourcePath)
		}
	}

	now := time.Now().UTC()
	doc.ID = m.nextDocID
	doc.CreatedAt = now
	doc.UpdatedAt = now
	m.nextDocID++

	stored := *doc
	m.docs[doc.ID] = &stored
	return doc.ID, nil
}

func (m *DocStore) AddChunks(_ context.Context, docID int64, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[docID]; !ok {
		return fmt.Errorf("%w: document %d", domain.ErrNotFound, docID)
	}

	for i := range chunks {
		chunks[i].ID = m.nextChunkID
		chunks[i].DocID = docID
		m.nextChunkID++

		stored := chunks[i]
		m.chunks[stored.ID] = &stored
	}
	return nil
}

func (m *DocStore) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *DocStore) FindByPath(_ context.Context, path string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, doc := range m.docs {
		if doc.SourcePath == path {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (m *DocStore) GetChunk(_ context.Context, id int64) (*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunk, ok := m.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *chunk
	return &copied, nil
}

func (m *DocStore) GetChunks(_ context.Context, docID int64) ([]domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.Chunk
	for _, chunk := range m.chunks {
		if chunk.DocID == docID {
			result = append(result, *chunk)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *DocStore) GetChunksForPage(_ context.Context, docID int64, page int) ([]domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.Chunk
	for _, chunk := range m.chunks {
		if chunk.DocID == docID && chunk.PageStart <= page && page <= chunk.PageEnd {
			result = append(result, *chunk)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *DocStore) EmbeddedChunks(_ context.Context, filter domain.Filter) ([]domain.ChunkVector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.ChunkVector
	for _, chunk := range m.chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if !m.matches(chunk.DocID, filter) {
			continue
		}
		result = append(result, domain.ChunkVector{ChunkID: chunk.ID, Embedding: chunk.Embedding})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ChunkID < result[j].ChunkID })
	return result, nil
}

func (m *DocStore) DeleteDocument(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, id)
	for chunkID, chunk := range m.chunks {
		if chunk.DocID == id {
			delete(m.chunks, chunkID)
		}
	}
	return nil
}

func (m *DocStore) Stats(_ context.Context) (docs, chunks int64, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.docs)), int64(len(m.chunks)), nil
}

// matches reports whether the chunk's document passes the filter.
// Callers must hold at least the read lock.
func (m *DocStore) matches(docID int64, filter domain.Filter) bool {
	if filter.IsZero() {
		return true
	}
	doc, ok := m.docs[docID]
	if !ok {
		return false
	}
	return containsOrEmpty(filter.Vendors, doc.Vendor) &&
		containsOrEmpty(filter.Families, doc.Family) &&
		containsOrEmpty(filter.Models, doc.Model)
}

func containsOrEmpty(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
