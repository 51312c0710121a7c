package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egregore-labs/manualdex/internal/chunker"
	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func extraction(text string, pages int) *driven.Extraction {
	return &driven.Extraction{Text: text, PageCount: pages}
}

func newPipeline(store driven.DocumentStore, ex *mockExtractor, embed driven.EmbeddingService, vec driven.VectorIndex, opts ...IngestOption) *IngestPipeline {
	return NewIngestPipeline(store, ex, embed, vec, chunker.New(), opts...)
}

func TestIngest_NoPaths(t *testing.T) {
	pipeline := newPipeline(newMockStore(), &mockExtractor{}, nil, nil)

	_, err := pipeline.Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_Success(t *testing.T) {
	store := newMockStore()
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{
		"/docs/Honeywell_Spyder_PUB1234.pdf": extraction(words(400), 2),
	}}
	embedder := &mockEmbedder{embedding: []float32{1, 0}}
	vec := &mockVectorIndex{}

	pipeline := newPipeline(store, ex, embedder, vec)
	report, err := pipeline.Ingest(context.Background(), []string{"/docs/Honeywell_Spyder_PUB1234.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Warnings)

	id, ok, err := store.FindByPath(context.Background(), "/docs/Honeywell_Spyder_PUB1234.pdf")
	require.NoError(t, err)
	require.True(t, ok)

	doc, err := store.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Honeywell", doc.Vendor)
	assert.Equal(t, "Spyder", doc.Family)
	assert.Equal(t, "PUB1234", doc.Model)
	assert.Equal(t, "Honeywell_Spyder_PUB1234", doc.Title)
	assert.Equal(t, 2, doc.PageCount)

	chunks, err := store.GetChunks(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{1, 0}, chunks[0].Embedding)

	// The vector index saw the stored chunk with its assigned ID
	require.Len(t, vec.added, 1)
	assert.Equal(t, chunks[0].ID, vec.added[0].ChunkID)
	assert.Equal(t, "Honeywell", vec.added[0].Vendor)
}

func TestIngest_MetadataOverridesFileName(t *testing.T) {
	store := newMockStore()
	ext := extraction(words(200), 3)
	ext.Metadata.Title = "Spyder Installation Guide"
	ext.Metadata.Vendor = "honeywell"
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{"/docs/scan0042.pdf": ext}}

	pipeline := newPipeline(store, ex, nil, nil)
	_, err := pipeline.Ingest(context.Background(), []string{"/docs/scan0042.pdf"})
	require.NoError(t, err)

	id, _, err := store.FindByPath(context.Background(), "/docs/scan0042.pdf")
	require.NoError(t, err)
	doc, err := store.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Spyder Installation Guide", doc.Title)
	assert.Equal(t, "honeywell", doc.Vendor)
}

func TestIngest_Idempotent(t *testing.T) {
	store := newMockStore()
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{
		"/docs/a.pdf": extraction(words(200), 1),
	}}
	pipeline := newPipeline(store, ex, nil, nil)

	first, err := pipeline.Ingest(context.Background(), []string{"/docs/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Indexed)

	second, err := pipeline.Ingest(context.Background(), []string{"/docs/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Indexed)
	assert.Equal(t, 1, second.Skipped)
	// Silent skip: an already indexed path is not a problem to report
	assert.Empty(t, second.Warnings)
}

func TestIngest_ExtractionFailureContinuesBatch(t *testing.T) {
	store := newMockStore()
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{
		"/docs/good.pdf": extraction(words(200), 1),
		// /docs/broken.pdf missing: extractor errors
	}}
	pipeline := newPipeline(store, ex, nil, nil)

	report, err := pipeline.Ingest(context.Background(), []string{"/docs/broken.pdf", "/docs/good.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "broken.pdf")
}

func TestIngest_InsufficientText(t *testing.T) {
	store := newMockStore()
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{
		"/docs/scanned.pdf": extraction("too short", 10),
	}}
	pipeline := newPipeline(store, ex, nil, nil)

	report, err := pipeline.Ingest(context.Background(), []string{"/docs/scanned.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "scanned.pdf: insufficient text extracted")

	// Nothing was stored
	_, ok, err := store.FindByPath(context.Background(), "/docs/scanned.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIngest_EmbeddingFailureDegradesToLexical(t *testing.T) {
	store := newMockStore()
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{
		"/docs/a.pdf": extraction(words(200), 1),
	}}
	embedder := &mockEmbedder{err: errors.New("ollama down")}
	vec := &mockVectorIndex{}

	pipeline := newPipeline(store, ex, embedder, vec)
	report, err := pipeline.Ingest(context.Background(), []string{"/docs/a.pdf"})
	require.NoError(t, err)

	// The document still indexes, just without vectors
	assert.Equal(t, 1, report.Indexed)

	id, _, err := store.FindByPath(context.Background(), "/docs/a.pdf")
	require.NoError(t, err)
	chunks, err := store.GetChunks(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Nil(t, chunks[0].Embedding)
	assert.Empty(t, vec.added)
}

func TestIngest_AddChunksFailureRollsBack(t *testing.T) {
	store := newMockStore()
	store.addChunksErr = errors.New("disk full")
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{
		"/docs/a.pdf": extraction(words(200), 1),
	}}
	pipeline := newPipeline(store, ex, nil, nil)

	report, err := pipeline.Ingest(context.Background(), []string{"/docs/a.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "disk full")

	// The compensating delete removed the half-written document
	require.Len(t, store.deletedDocs, 1)
	_, ok, err := store.FindByPath(context.Background(), "/docs/a.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIngest_ClampsPageEstimates(t *testing.T) {
	store := newMockStore()
	// 900 words estimate pages 1-4, but the document has a single page
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{
		"/docs/a.pdf": extraction(words(900), 1),
	}}
	pipeline := newPipeline(store, ex, nil, nil)

	_, err := pipeline.Ingest(context.Background(), []string{"/docs/a.pdf"})
	require.NoError(t, err)

	id, _, err := store.FindByPath(context.Background(), "/docs/a.pdf")
	require.NoError(t, err)
	chunks, err := store.GetChunks(context.Background(), id)
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.Equal(t, 1, chunk.PageStart)
		assert.Equal(t, 1, chunk.PageEnd)
	}
}

func TestIngest_WarningsKeepInputOrder(t *testing.T) {
	store := newMockStore()
	ex := &mockExtractor{extractions: map[string]*driven.Extraction{}}
	pipeline := newPipeline(store, ex, nil, nil, WithConcurrency(4))

	report, err := pipeline.Ingest(context.Background(), []string{
		"/docs/one.pdf", "/docs/two.pdf", "/docs/three.pdf",
	})
	require.NoError(t, err)

	require.Len(t, report.Warnings, 3)
	assert.Contains(t, report.Warnings[0], "one.pdf")
	assert.Contains(t, report.Warnings[1], "two.pdf")
	assert.Contains(t, report.Warnings[2], "three.pdf")
}

func TestParseFileName(t *testing.T) {
	vendor, family, model := parseFileName("Honeywell_Spyder_PUB1234")
	assert.Equal(t, "Honeywell", vendor)
	assert.Equal(t, "Spyder", family)
	assert.Equal(t, "PUB1234", model)

	vendor, family, model = parseFileName("trane-tracer-sc")
	assert.Equal(t, "Trane", vendor)
	assert.Equal(t, "tracer", family)
	assert.Equal(t, "sc", model)

	vendor, family, model = parseFileName("random manual")
	assert.Empty(t, vendor)
	assert.Equal(t, "manual", family)
	assert.Empty(t, model)
}
