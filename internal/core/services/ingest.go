package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/egregore-labs/manualdex/internal/chunker"
	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
	"github.com/egregore-labs/manualdex/internal/core/ports/driving"
	"github.com/egregore-labs/manualdex/internal/logger"
)

// Ensure IngestPipeline implements the interface.
var _ driving.IngestService = (*IngestPipeline)(nil)

// MinTextLength is the minimum extracted text length worth indexing.
// Documents below it are skipped with a warning.
const MinTextLength = 100

// DefaultConcurrency bounds how many documents one batch processes in
// parallel. Each document's own steps stay sequential.
const DefaultConcurrency = 4

// DefaultEmbedTimeout bounds a single embedding call during ingestion.
// A timeout counts as an embedding failure for that chunk, not a fatal
// ingestion error.
const DefaultEmbedTimeout = 30 * time.Second

// knownVendors is the fallback list matched against file name tokens
// when the extractor supplies no vendor.
var knownVendors = []string{
	"Honeywell", "Johnson", "Siemens", "Schneider", "Trane", "Carrier", "Daikin",
}

// IngestPipeline orchestrates extraction, chunking, embedding and
// storage for batches of manuals.
type IngestPipeline struct {
	store            driven.DocumentStore
	extractor        driven.Extractor
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	splitter         *chunker.Chunker

	concurrency  int
	embedTimeout time.Duration
}

// IngestOption configures the pipeline.
type IngestOption func(*IngestPipeline)

// WithConcurrency bounds parallel document processing within a batch.
func WithConcurrency(n int) IngestOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithEmbedTimeout bounds a single embedding call.
func WithEmbedTimeout(d time.Duration) IngestOption {
	return func(p *IngestPipeline) {
		if d > 0 {
			p.embedTimeout = d
		}
	}
}

// NewIngestPipeline creates an ingestion pipeline. The embedding service
// is optional: when nil, documents are stored without embeddings and
// search degrades to lexical-only for them. The vector index is optional
// as well; store-backed indexes need no add calls.
func NewIngestPipeline(
	store driven.DocumentStore,
	extractor driven.Extractor,
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	splitter *chunker.Chunker,
	opts ...IngestOption,
) *IngestPipeline {
	p := &IngestPipeline{
		store:            store,
		extractor:        extractor,
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		splitter:         splitter,
		concurrency:      DefaultConcurrency,
		embedTimeout:     DefaultEmbedTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// pathOutcome records what happened to one input path.
type pathOutcome struct {
	indexed bool
	warning string
}

// Ingest processes each path independently. A failing document is
// recorded as a warning keyed by file name and counted as skipped;
// the batch always continues.
func (p *IngestPipeline) Ingest(ctx context.Context, paths []string) (*domain.IngestReport, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths given", domain.ErrInvalidInput)
	}

	logger.Section("Ingestion")
	logger.Info("Starting ingestion of %d documents", len(paths))

	// Documents are independent; process in parallel with a bound.
	// Outcomes are kept per input index so warnings stay in input order.
	outcomes := make([]pathOutcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			outcomes[i] = p.ingestOne(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.IngestReport{Warnings: []string{}}
	for _, out := range outcomes {
		if out.indexed {
			report.Indexed++
		} else {
			report.Skipped++
		}
		if out.warning != "" {
			report.Warnings = append(report.Warnings, out.warning)
		}
	}

	logger.Info("Ingestion complete: %d indexed, %d skipped, %d warnings",
		report.Indexed, report.Skipped, len(report.Warnings))
	return report, nil
}

// ingestOne runs the per-document pipeline: dedup check, extraction,
// metadata derivation, chunking, embedding, storage.
func (p *IngestPipeline) ingestOne(ctx context.Context, path string) pathOutcome {
	name := filepath.Base(path)

	// Already indexed paths are skipped silently: ingestion is
	// idempotent at the path level.
	if _, ok, err := p.store.FindByPath(ctx, path); err != nil {
		return pathOutcome{warning: fmt.Sprintf("%s: %v", name, err)}
	} else if ok {
		logger.Info("Skipping already indexed: %s", path)
		return pathOutcome{}
	}

	logger.Info("Extracting text from: %s", path)
	extraction, err := p.extractor.Extract(ctx, path)
	if err != nil {
		logger.Warn("Extraction failed for %s: %v", path, err)
		return pathOutcome{warning: fmt.Sprintf("%s: %v", name, err)}
	}

	if len(extraction.Text) < MinTextLength {
		return pathOutcome{warning: fmt.Sprintf("%s: %v", name, domain.ErrInsufficientText)}
	}

	doc := buildDocument(path, extraction)

	docID, err := p.store.CreateDocument(ctx, doc)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateDocument) {
			// Lost a same-path race; the other writer owns the document.
			logger.Debug("Concurrent duplicate for %s", path)
			return pathOutcome{}
		}
		return pathOutcome{warning: fmt.Sprintf("%s: %v", name, err)}
	}

	chunks := p.splitter.Split(extraction.Text)
	logger.Info("Created %d chunks for document %d", len(chunks), docID)

	for i := range chunks {
		chunks[i].DocID = docID
		clampPages(&chunks[i], doc.PageCount)
		chunks[i].Embedding = p.embedChunk(ctx, chunks[i].Text)
	}

	if err := p.store.AddChunks(ctx, docID, chunks); err != nil {
		// Roll the document back so a retry is not poisoned by a
		// chunkless document.
		if delErr := p.store.DeleteDocument(ctx, docID); delErr != nil {
			logger.Warn("Rollback of document %d failed: %v", docID, delErr)
		}
		return pathOutcome{warning: fmt.Sprintf("%s: %v", name, err)}
	}

	if p.vectorIndex != nil {
		for _, chunk := range chunks {
			if chunk.Embedding == nil {
				continue
			}
			rec := driven.VectorRecord{
				ChunkID:   chunk.ID,
				DocID:     docID,
				Vendor:    doc.Vendor,
				Family:    doc.Family,
				Model:     doc.Model,
				Embedding: chunk.Embedding,
			}
			if err := p.vectorIndex.Add(ctx, rec); err != nil {
				logger.Warn("Vector index add for chunk %d failed: %v", chunk.ID, err)
			}
		}
	}

	logger.Info("Successfully indexed: %s", path)
	return pathOutcome{indexed: true}
}

// embedChunk requests an embedding with a timeout. Failures degrade the
// chunk to lexical-only rather than aborting the document.
func (p *IngestPipeline) embedChunk(ctx context.Context, text string) []float32 {
	if p.embeddingService == nil {
		return nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	embedding, err := p.embeddingService.Embed(embedCtx, text)
	if err != nil {
		logger.Warn("Embedding failed, storing chunk without vector: %v", err)
		return nil
	}
	return embedding
}

// buildDocument derives the document record from the extraction result,
// preferring extractor metadata and falling back to file name tokens.
func buildDocument(path string, extraction *driven.Extraction) *domain.Document {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	vendor, family, model := parseFileName(stem)
	meta := extraction.Metadata

	title := meta.Title
	if title == "" {
		title = stem
	}
	if meta.Vendor != "" {
		vendor = meta.Vendor
	}
	if meta.Family != "" {
		family = meta.Family
	}
	if meta.Model != "" {
		model = meta.Model
	}

	return &domain.Document{
		Title:      title,
		Vendor:     vendor,
		Family:     family,
		Model:      model,
		SourcePath: path,
		PageCount:  extraction.PageCount,
	}
}

// parseFileName tokenizes a file name stem like
// "Honeywell_Spyder_IOM_RevC" and matches tokens against the known
// vendor list. Family and model fall back to token positions; unmatched
// fields stay empty.
func parseFileName(stem string) (vendor, family, model string) {
	normalized := strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	parts := strings.Fields(normalized)

	for _, part := range parts {
		for _, v := range knownVendors {
			if strings.EqualFold(v, part) {
				vendor = v
				break
			}
		}
		if vendor != "" {
			break
		}
	}

	if len(parts) > 1 {
		family = parts[1]
	}
	if len(parts) > 2 {
		model = parts[2]
	}
	return vendor, family, model
}

// clampPages keeps the heuristic page estimate inside the document's
// real page count.
func clampPages(chunk *domain.Chunk, pageCount int) {
	if pageCount < 1 {
		return
	}
	if chunk.PageStart > pageCount {
		chunk.PageStart = pageCount
	}
	if chunk.PageEnd > pageCount {
		chunk.PageEnd = pageCount
	}
}
