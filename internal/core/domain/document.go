package domain

import "time"

// Document represents one ingested technical manual.
// A document is created exactly once per unique SourcePath and is never
// mutated afterwards, except for UpdatedAt on administrative edits.
type Document struct {
	// ID is the durable integer identity assigned by the store.
	ID int64

	// Title is the human-readable title, taken from extractor metadata
	// or derived from the file name.
	Title string

	// Vendor, Family and Model classify the equipment the manual covers.
	// Empty string means the field could not be determined.
	Vendor string
	Family string
	Model  string

	// SourcePath is the original file path. It is the dedup key:
	// ingesting the same path twice stores the document once.
	SourcePath string

	// PageCount is the number of pages reported by the extractor.
	PageCount int

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk is the unit of indexing and retrieval: a contiguous word-window
// cut from a document's extracted text. Chunks are created during
// ingestion, never mutated, and removed only when their document is deleted.
type Chunk struct {
	// ID is the durable integer identity assigned by the store.
	ID int64

	// DocID links to the parent Document.
	DocID int64

	// Text is the chunk content. Never empty for a stored chunk.
	Text string

	// PageStart and PageEnd bound the estimated page range (inclusive).
	// The estimate comes from a words-per-page heuristic, not from real
	// page boundaries, so callers must not treat it as exact.
	PageStart int
	PageEnd   int

	// Embedding is the vector representation for semantic search.
	// Nil when the embedding call failed for this chunk; such chunks
	// remain searchable through the lexical index only.
	Embedding []float32
}

// ChunkVector pairs a chunk identity with its stored embedding.
// It is what an exhaustive vector scan iterates over.
type ChunkVector struct {
	ChunkID   int64
	Embedding []float32
}
