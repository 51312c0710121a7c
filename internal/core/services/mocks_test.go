package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/egregore-labs/manualdex/internal/adapters/driven/storage/memory"
	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
)

// mockStore wraps the in-memory store with failure injection and call
// recording for the paths the pipeline must handle.
type mockStore struct {
	*memory.DocStore
	mu           sync.Mutex
	addChunksErr error
	deletedDocs  []int64
}

func newMockStore() *mockStore {
	return &mockStore{DocStore: memory.NewDocStore()}
}

func (s *mockStore) AddChunks(ctx context.Context, docID int64, chunks []domain.Chunk) error {
	if s.addChunksErr != nil {
		return s.addChunksErr
	}
	return s.DocStore.AddChunks(ctx, docID, chunks)
}

func (s *mockStore) DeleteDocument(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.deletedDocs = append(s.deletedDocs, id)
	s.mu.Unlock()
	return s.DocStore.DeleteDocument(ctx, id)
}

// mockExtractor returns canned extractions per path.
type mockExtractor struct {
	extractions map[string]*driven.Extraction
	err         error
}

func (e *mockExtractor) Extract(_ context.Context, path string) (*driven.Extraction, error) {
	if e.err != nil {
		return nil, e.err
	}
	if ex, ok := e.extractions[path]; ok {
		return ex, nil
	}
	return nil, domain.ErrExtraction
}

// mockEmbedder returns a fixed vector, or fails every call.
type mockEmbedder struct {
	embedding []float32
	err       error
	mu        sync.Mutex
	calls     int
}

func (e *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.embedding, nil
}

func (e *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var err error
		out[i], err = e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *mockEmbedder) Dimensions() int              { return len(e.embedding) }
func (e *mockEmbedder) ModelName() string            { return "mock" }
func (e *mockEmbedder) Ping(_ context.Context) error { return nil }
func (e *mockEmbedder) Close() error                 { return nil }

// mockVectorIndex records adds and deletes and serves canned hits.
type mockVectorIndex struct {
	mu      sync.Mutex
	added   []driven.VectorRecord
	deleted []int64
	hits    []driven.VectorHit
	err     error
}

func (v *mockVectorIndex) Add(_ context.Context, record driven.VectorRecord) error {
	v.mu.Lock()
	v.added = append(v.added, record)
	v.mu.Unlock()
	return v.err
}

func (v *mockVectorIndex) Delete(_ context.Context, chunkID int64) error {
	v.mu.Lock()
	v.deleted = append(v.deleted, chunkID)
	v.mu.Unlock()
	return v.err
}

func (v *mockVectorIndex) Search(_ context.Context, _ []float32, _ domain.Filter, k int) ([]driven.VectorHit, error) {
	if v.err != nil {
		return nil, v.err
	}
	hits := v.hits
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (v *mockVectorIndex) Close() error { return nil }

// mockLexicalIndex serves canned hits, or scans a memory store counting
// term matches when wired to one.
type mockLexicalIndex struct {
	hits  []driven.LexicalHit
	err   error
	store *memory.DocStore
}

func (l *mockLexicalIndex) Search(ctx context.Context, query string, filter domain.Filter, limit int) ([]driven.LexicalHit, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.store == nil {
		hits := l.hits
		if len(hits) > limit {
			hits = hits[:limit]
		}
		return hits, nil
	}
	return l.scan(ctx, query, filter, limit)
}

// scan is a crude relevance stand-in: more matching query terms means a
// better (lower) score, mimicking BM25's best-first ordering.
func (l *mockLexicalIndex) scan(ctx context.Context, query string, filter domain.Filter, limit int) ([]driven.LexicalHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	var hits []driven.LexicalHit

	// Walk every chunk of every document the filter admits.
	for docID := int64(1); ; docID++ {
		doc, err := l.store.GetDocument(ctx, docID)
		if err != nil {
			break
		}
		if !filter.IsZero() && !matchesFilter(doc, filter) {
			continue
		}
		chunks, err := l.store.GetChunks(ctx, docID)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			text := strings.ToLower(chunk.Text)
			matches := 0
			for _, term := range terms {
				if strings.Contains(text, term) {
					matches++
				}
			}
			if matches > 0 {
				hits = append(hits, driven.LexicalHit{ChunkID: chunk.ID, Score: -float64(matches)})
			}
		}
	}

	// Best first: most matches, i.e. most negative score
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score < hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func matchesFilter(doc *domain.Document, filter domain.Filter) bool {
	contains := func(values []string, v string) bool {
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
	return contains(filter.Vendors, doc.Vendor) &&
		contains(filter.Families, doc.Family) &&
		contains(filter.Models, doc.Model)
}
