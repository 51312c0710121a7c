package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
	"github.com/egregore-labs/manualdex/internal/core/ports/driving"
	"github.com/egregore-labs/manualdex/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Fusion weights. BM25 and cosine similarity live on incomparable
// scales, so fusion works on rank positions normalised per list; the
// lexical list carries more weight than the vector list.
const (
	lexicalWeight = 0.6
	vectorWeight  = 0.4
)

// DefaultMaxResults caps each candidate list before fusion.
const DefaultMaxResults = 20

// SnippetLength is the maximum snippet size in bytes before truncation.
const SnippetLength = 300

// fusedChunk is an intermediate fusion candidate.
type fusedChunk struct {
	chunkID int64
	score   float64
	lexRank int // rank in the lexical list, -1 when vector-only
}

// SearchService provides hybrid retrieval: lexical and vector queries
// run in parallel and their rankings are fused into one citation list.
type SearchService struct {
	store            driven.DocumentStore
	lexicalIndex     driven.LexicalIndex
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	maxResults       int
}

// SearchOption configures the search service.
type SearchOption func(*SearchService)

// WithMaxResults caps each candidate list before fusion.
func WithMaxResults(n int) SearchOption {
	return func(s *SearchService) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// NewSearchService creates a search service. The vector index and
// embedding service are optional; without them search is lexical-only.
func NewSearchService(
	store driven.DocumentStore,
	lexicalIndex driven.LexicalIndex,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	opts ...SearchOption,
) *SearchService {
	s := &SearchService{
		store:            store,
		lexicalIndex:     lexicalIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		maxResults:       DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates the query, runs both retrieval paths restricted to
// the same filtered document set, fuses the rankings and formats the
// surviving chunks as citations.
func (s *SearchService) Search(ctx context.Context, query domain.Query) ([]domain.Citation, error) {
	query = query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	logger.Section("Search Execution")
	logger.Debug("Query: %q (k=%d)", query.Text, query.K)

	filter := query.Filter()

	// Both paths run concurrently; each degrades independently.
	var (
		wg          sync.WaitGroup
		lexicalHits []driven.LexicalHit
		vectorHits  []driven.VectorHit
		lexicalErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lexicalHits, lexicalErr = s.lexicalIndex.Search(ctx, query.Text, filter, s.maxResults)
	}()
	go func() {
		defer wg.Done()
		vectorHits = s.vectorSearch(ctx, query.Text, filter)
	}()
	wg.Wait()

	// Lexical failure is a request-level storage failure: with both
	// paths gone there is no way to distinguish "no results" from
	// "search unavailable".
	if lexicalErr != nil {
		logger.Warn("Lexical search failed: %v", lexicalErr)
		return nil, fmt.Errorf("%w: lexical search: %v", domain.ErrStorage, lexicalErr)
	}

	logger.Debug("Candidates: %d lexical, %d vector", len(lexicalHits), len(vectorHits))

	fused := fuseRankings(lexicalHits, vectorHits)
	if len(fused) > query.K {
		fused = fused[:query.K]
	}

	citations, err := s.toCitations(ctx, fused)
	if err != nil {
		return nil, err
	}

	logger.Info("Search returned %d results", len(citations))
	return citations, nil
}

// vectorSearch embeds the query and runs the similarity path. Any
// failure collapses this path to an empty list so the request falls
// back to lexical-only ranking.
func (s *SearchService) vectorSearch(ctx context.Context, text string, filter domain.Filter) []driven.VectorHit {
	if s.vectorIndex == nil || s.embeddingService == nil {
		return nil
	}

	embedding, err := s.embeddingService.Embed(ctx, text)
	if err != nil {
		logger.Warn("Query embedding failed, falling back to lexical-only: %v", err)
		return nil
	}

	hits, err := s.vectorIndex.Search(ctx, embedding, filter, s.maxResults)
	if err != nil {
		logger.Warn("Vector search failed, falling back to lexical-only: %v", err)
		return nil
	}
	return hits
}

// fuseRankings merges the two candidate lists keyed by chunk identity.
// Each list contributes weight * (1 - rank/len); a chunk in both lists
// sums its contributions. Ties break on the lexical rank when present.
func fuseRankings(lexical []driven.LexicalHit, vector []driven.VectorHit) []fusedChunk {
	merged := make(map[int64]*fusedChunk, len(lexical)+len(vector))

	for rank, hit := range lexical {
		merged[hit.ChunkID] = &fusedChunk{
			chunkID: hit.ChunkID,
			score:   lexicalWeight * normalizedRank(rank, len(lexical)),
			lexRank: rank,
		}
	}

	for rank, hit := range vector {
		contribution := vectorWeight * normalizedRank(rank, len(vector))
		if existing, ok := merged[hit.ChunkID]; ok {
			existing.score += contribution
			continue
		}
		merged[hit.ChunkID] = &fusedChunk{
			chunkID: hit.ChunkID,
			score:   contribution,
			lexRank: -1,
		}
	}

	results := make([]fusedChunk, 0, len(merged))
	for _, fc := range merged {
		results = append(results, *fc)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		// Equal scores: a lexical candidate outranks a vector-only
		// one, and lexical candidates keep their lexical order.
		switch {
		case results[i].lexRank >= 0 && results[j].lexRank >= 0:
			return results[i].lexRank < results[j].lexRank
		case results[i].lexRank >= 0:
			return true
		default:
			return false
		}
	})

	return results
}

// normalizedRank converts a 0-indexed list position to a score in
// (0, 1]: the top of a list scores 1.0 regardless of list length.
func normalizedRank(rank, listLen int) float64 {
	return 1 - float64(rank)/float64(listLen)
}

// toCitations hydrates fused candidates into citation records.
// Chunks or documents deleted since the index query are skipped.
func (s *SearchService) toCitations(ctx context.Context, fused []fusedChunk) ([]domain.Citation, error) {
	citations := make([]domain.Citation, 0, len(fused))
	docs := make(map[int64]*domain.Document)

	for _, fc := range fused {
		chunk, err := s.store.GetChunk(ctx, fc.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %d: %w", fc.chunkID, err)
		}

		doc, ok := docs[chunk.DocID]
		if !ok {
			doc, err = s.store.GetDocument(ctx, chunk.DocID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("get document %d: %w", chunk.DocID, err)
			}
			docs[chunk.DocID] = doc
		}

		citations = append(citations, domain.Citation{
			DocID:     doc.ID,
			Title:     doc.Title,
			Vendor:    doc.Vendor,
			Family:    doc.Family,
			Model:     doc.Model,
			PageStart: chunk.PageStart,
			PageEnd:   chunk.PageEnd,
			Snippet:   makeSnippet(chunk.Text),
			Score:     fc.score,
		})
	}

	return citations, nil
}

// makeSnippet truncates chunk text to SnippetLength with an ellipsis marker.
func makeSnippet(text string) string {
	if len(text) <= SnippetLength {
		return text
	}
	return text[:SnippetLength] + "..."
}
